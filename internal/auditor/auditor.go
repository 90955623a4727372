// Package auditor loads a page in headless Chrome and checks it against a
// WCAG 2.1 AA rule set.
package auditor

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"eaa-compliance-agent/internal/modal"
)

const runnerName = "eaa-rules"

//go:embed rules.js
var rulesScript string

type Auditor interface {
	Audit(ctx context.Context, url string) (modal.AuditResult, error)
}

type Chrome struct {
	Timeout   time.Duration
	UserAgent string
}

func (c Chrome) Audit(ctx context.Context, url string) (modal.AuditResult, error) {
	if strings.TrimSpace(url) == "" {
		return modal.AuditResult{}, errors.New("invalid url")
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	userAgent := c.UserAgent
	if userAgent == "" {
		userAgent = "EAAComplianceAgent/1.0"
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var title string
	var raw []byte
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Title(&title),
		chromedp.Evaluate(rulesScript, &raw),
	)
	if err != nil {
		return modal.AuditResult{}, fmt.Errorf("load %s: %w", url, err)
	}
	return decodeResult(url, title, raw)
}

func decodeResult(url string, title string, raw []byte) (modal.AuditResult, error) {
	issues := []modal.AuditIssue{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &issues); err != nil {
			return modal.AuditResult{}, fmt.Errorf("decode audit issues: %w", err)
		}
	}
	for i := range issues {
		issues[i].TypeCode = typeCode(issues[i].Type)
		if issues[i].Runner == "" {
			issues[i].Runner = runnerName
		}
	}
	return modal.AuditResult{
		DocumentTitle: strings.TrimSpace(title),
		PageURL:       url,
		Issues:        issues,
	}, nil
}

func typeCode(t modal.IssueType) int {
	switch t {
	case modal.IssueError:
		return 1
	case modal.IssueWarning:
		return 2
	default:
		return 3
	}
}
