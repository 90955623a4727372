// Package feedback turns a website URL into an EAA compliance report.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"eaa-compliance-agent/internal/auditor"
	"eaa-compliance-agent/internal/llm"
	"eaa-compliance-agent/internal/metrics"
	"eaa-compliance-agent/internal/modal"
	"eaa-compliance-agent/internal/urlx"
)

const SystemInstruction = "You are an accessibility expert. Analyze the provided accessibility audit results based on the European Accessibility Act (EAA) and WCAG 2.1 AA. Identify which issues require compliance fixes and which are best practices."

// Runner is the pipeline as seen by its callers.
type Runner interface {
	Run(ctx context.Context, url string) (string, error)
}

type Pipeline struct {
	auditor    auditor.Auditor
	summarizer llm.Summarizer
	logger     *zap.Logger
}

func New(a auditor.Auditor, s llm.Summarizer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{auditor: a, summarizer: s, logger: logger}
}

// Run audits url and summarizes the findings. Every call makes exactly one
// auditor request and at most one summarizer request; nothing is retried.
func (p *Pipeline) Run(ctx context.Context, url string) (report string, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = strings.ToLower(Kind(err))
		}
		metrics.PipelineRuns.WithLabelValues(outcome).Inc()
		metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	if !urlx.Valid(url) {
		return "", &InvalidInput{Value: url}
	}

	p.logger.Info("running accessibility audit", zap.String("url", url))
	result, err := p.auditor.Audit(ctx, url)
	if err != nil {
		p.logger.Warn("accessibility audit failed", zap.String("url", url), zap.Error(err))
		return "", &AuditFailure{URL: url, Err: err}
	}
	counts := result.Counts()
	for issueType, n := range counts {
		metrics.AuditIssues.WithLabelValues(string(issueType)).Add(float64(n))
	}
	p.logger.Info("accessibility audit finished",
		zap.String("url", url),
		zap.Int("issues", len(result.Issues)),
		zap.Int("errors", counts[modal.IssueError]))

	payload, err := json.Marshal(result)
	if err != nil {
		return "", &AuditFailure{URL: url, Err: fmt.Errorf("encode findings: %w", err)}
	}

	narrative, err := p.summarizer.Generate(ctx, SystemInstruction, "Accessibility Audit Results: "+string(payload))
	if err != nil {
		p.logger.Warn("compliance summary failed", zap.String("url", url), zap.Error(err))
		return "", &SummarizationFailure{Err: err}
	}
	if strings.TrimSpace(narrative) == "" {
		return "", &SummarizationFailure{Err: llm.ErrEmptyResponse}
	}

	return FormatReport(result, narrative), nil
}

// FormatReport puts a findings header in front of the generated narrative.
func FormatReport(result modal.AuditResult, narrative string) string {
	var b strings.Builder
	if result.DocumentTitle != "" {
		fmt.Fprintf(&b, "Page: %s (%s)\n", result.DocumentTitle, result.PageURL)
	} else {
		fmt.Fprintf(&b, "Page: %s\n", result.PageURL)
	}
	counts := result.Counts()
	fmt.Fprintf(&b, "Issues found: %d (%d errors, %d warnings, %d notices)\n\n",
		len(result.Issues), counts[modal.IssueError], counts[modal.IssueWarning], counts[modal.IssueNotice])
	b.WriteString(strings.TrimSpace(narrative))
	return b.String()
}
