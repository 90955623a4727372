// Package bootstrap builds the shared runtime pieces from configuration.
package bootstrap

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"eaa-compliance-agent/internal/auditor"
	"eaa-compliance-agent/internal/config"
	"eaa-compliance-agent/internal/feedback"
	"eaa-compliance-agent/internal/host"
	"eaa-compliance-agent/internal/llm"
	"eaa-compliance-agent/internal/logging"
	"eaa-compliance-agent/internal/memory"
)

func Pipeline(cfg config.Config, logger *zap.Logger) (*feedback.Pipeline, error) {
	summarizer, err := llm.NewSummarizer(llm.Config{
		Provider:    cfg.LLMProvider,
		Model:       cfg.OpenAIModel,
		BaseURL:     cfg.OpenAIBaseURL,
		APIKey:      cfg.OpenAIAPIKey,
		MaxTokens:   cfg.SummaryMaxTokens,
		Temperature: cfg.SummaryTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("summarizer: %w", err)
	}
	a := auditor.Chrome{Timeout: cfg.AuditTimeout, UserAgent: cfg.AuditUserAgent}
	return feedback.New(a, summarizer, logger), nil
}

func Host(cfg config.Config) *host.Client {
	return host.NewClient(cfg.OpenServAPIURL, cfg.OpenServAPIKey)
}

func DialTemporal(cfg config.Config, logger *zap.Logger) (client.Client, error) {
	return client.Dial(client.Options{
		HostPort: cfg.TemporalAddress,
		Logger:   logging.NewZapAdapter(logger.Named("temporal")),
	})
}

// ConversationStore returns a Redis-backed store when REDIS_URL is set and an
// in-process one otherwise. The returned close func is never nil.
func ConversationStore(ctx context.Context, cfg config.Config) (memory.Store, func() error, error) {
	if cfg.RedisURL == "" {
		return memory.NewInMemory(cfg.ConversationTTL), func() error { return nil }, nil
	}
	store, err := memory.DialRedis(ctx, cfg.RedisURL, cfg.ConversationTTL)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}
