package feedback

import (
	"errors"
	"fmt"
)

// InvalidInput marks a missing or malformed URL. Callers recover from it by asking for another one.
type InvalidInput struct {
	Value string
}

func (e *InvalidInput) Error() string {
	return fmt.Sprintf("invalid URL %q", e.Value)
}

// AuditFailure means the auditor could not reach or analyze the page.
type AuditFailure struct {
	URL string
	Err error
}

func (e *AuditFailure) Error() string {
	return fmt.Sprintf("accessibility audit failed for %s: %v", e.URL, e.Err)
}

func (e *AuditFailure) Unwrap() error { return e.Err }

// SummarizationFailure means the summarizer errored or produced no content.
type SummarizationFailure struct {
	Err error
}

func (e *SummarizationFailure) Error() string {
	return fmt.Sprintf("compliance summary failed: %v", e.Err)
}

func (e *SummarizationFailure) Unwrap() error { return e.Err }

const (
	KindInvalidInput         = "InvalidInput"
	KindAuditFailure         = "AuditFailure"
	KindSummarizationFailure = "SummarizationFailure"
)

// Kind names the failure class of err, or "" when err is not a pipeline failure.
func Kind(err error) string {
	var invalid *InvalidInput
	var audit *AuditFailure
	var summary *SummarizationFailure
	switch {
	case errors.As(err, &invalid):
		return KindInvalidInput
	case errors.As(err, &audit):
		return KindAuditFailure
	case errors.As(err, &summary):
		return KindSummarizationFailure
	default:
		return ""
	}
}
