// Package chat answers chat messages addressed to the agent.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eaa-compliance-agent/internal/feedback"
	"eaa-compliance-agent/internal/host"
	"eaa-compliance-agent/internal/memory"
	"eaa-compliance-agent/internal/metrics"
	"eaa-compliance-agent/internal/modal"
	"eaa-compliance-agent/internal/urlx"
)

const (
	CompletionBanner = "EAA Compliance Analysis Complete!\n\n"
	AskForURLReply   = "I'd be happy to audit a website for EAA compliance. Please provide the URL (including http:// or https://)."
	GenericReply     = "I need a valid URL to proceed. Please share a properly formatted URL (including http:// or https://)."
	invalidURLReply  = "The value %q is not a valid URL. Please provide a properly formatted URL (including http:// or https://)."
	errorReply       = "Error analyzing website: %s"
)

const (
	RouteAudit           = "audit"
	RouteAuditRemembered = "audit_remembered"
	RouteInvalidURL      = "invalid_url"
	RouteAskForURL       = "ask_url"
	RoutePrompt          = "prompt"
)

var intentKeywords = []string{"plan", "analyze", "audit"}

type Router struct {
	host     host.Host
	pipeline feedback.Runner
	memory   memory.Store
	logger   *zap.Logger
}

// NewRouter builds a router. store may be nil, which disables URL memory.
func NewRouter(h host.Host, pipeline feedback.Runner, store memory.Store, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{host: h, pipeline: pipeline, memory: store, logger: logger}
}

// Respond sends exactly one reply for the newest message of the action.
// The pipeline, when needed, has finished before the reply goes out.
func (r *Router) Respond(ctx context.Context, action modal.ChatAction) error {
	logger := r.logger.With(
		zap.String("chatID", uuid.NewString()),
		zap.Int("workspaceID", action.Workspace.ID),
	)
	reply, route := r.reply(ctx, action, logger)
	metrics.ChatReplies.WithLabelValues(route).Inc()
	logger.Info("sending chat reply", zap.String("route", route))

	if err := r.host.SendChatMessage(ctx, action.Workspace.ID, action.Me.ID, reply); err != nil {
		logger.Error("failed to send chat reply", zap.Error(err))
		return fmt.Errorf("send chat message: %w", err)
	}
	return nil
}

func (r *Router) reply(ctx context.Context, action modal.ChatAction, logger *zap.Logger) (string, string) {
	text := action.LastMessage()

	if candidate, ok := urlx.First(text); ok {
		if !urlx.Valid(candidate) {
			return fmt.Sprintf(invalidURLReply, candidate), RouteInvalidURL
		}
		r.remember(ctx, action, candidate, logger)
		return r.audit(ctx, candidate, logger), RouteAudit
	}

	if hasIntent(text) {
		if url := r.recall(ctx, action, logger); url != "" {
			logger.Info("using remembered URL", zap.String("url", url))
			return r.audit(ctx, url, logger), RouteAuditRemembered
		}
		return AskForURLReply, RouteAskForURL
	}
	return GenericReply, RoutePrompt
}

func (r *Router) audit(ctx context.Context, url string, logger *zap.Logger) string {
	report, err := r.pipeline.Run(ctx, url)
	if err != nil {
		logger.Warn("feedback pipeline failed", zap.String("url", url), zap.String("kind", feedback.Kind(err)), zap.Error(err))
		return fmt.Sprintf(errorReply, err.Error())
	}
	return CompletionBanner + report
}

func (r *Router) remember(ctx context.Context, action modal.ChatAction, url string, logger *zap.Logger) {
	if r.memory == nil {
		return
	}
	if err := r.memory.Remember(ctx, action.ConversationID(), url); err != nil {
		logger.Warn("failed to remember URL", zap.Error(err))
	}
}

func (r *Router) recall(ctx context.Context, action modal.ChatAction, logger *zap.Logger) string {
	if r.memory == nil {
		return ""
	}
	url, ok, err := r.memory.Recall(ctx, action.ConversationID())
	if err != nil {
		logger.Warn("failed to recall URL", zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return url
}

func hasIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range intentKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
