package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eaa_feedback_pipeline_runs_total",
			Help: "Feedback pipeline runs by outcome (ok, invalidinput, auditfailure, summarizationfailure)",
		},
		[]string{"outcome"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eaa_feedback_pipeline_duration_seconds",
			Help:    "Wall time of a feedback pipeline run",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		},
	)

	AuditIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eaa_audit_issues_total",
			Help: "Accessibility issues reported by the auditor, by type",
		},
		[]string{"type"},
	)

	TaskOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eaa_task_outcomes_total",
			Help: "Tasks leaving the orchestrator, by resulting status",
		},
		[]string{"status"},
	)

	ChatReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eaa_chat_replies_total",
			Help: "Chat replies sent, by route",
		},
		[]string{"route"},
	)
)
