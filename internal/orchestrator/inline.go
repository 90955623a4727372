package orchestrator

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eaa-compliance-agent/internal/feedback"
	"eaa-compliance-agent/internal/host"
	"eaa-compliance-agent/internal/logging"
	"eaa-compliance-agent/internal/metrics"
	"eaa-compliance-agent/internal/modal"
)

// Orchestrator drives tasks in-process against the host API.
type Orchestrator struct {
	host     host.Host
	pipeline feedback.Runner
	logger   *zap.Logger
}

func New(h host.Host, pipeline feedback.Runner, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{host: h, pipeline: pipeline, logger: logger}
}

func (o *Orchestrator) DoTask(ctx context.Context, action modal.TaskAction) (modal.TaskStatus, error) {
	fx := &hostEffects{ctx: ctx, host: o.host, pipeline: o.pipeline, action: action}
	status, err := Drive(action, fx, logging.NewZapAdapter(o.logger))
	if status != "" {
		metrics.TaskOutcomes.WithLabelValues(string(status)).Inc()
	}
	return status, err
}

type hostEffects struct {
	ctx      context.Context
	host     host.Host
	pipeline feedback.Runner
	action   modal.TaskAction
}

func (e *hostEffects) UpdateStatus(status modal.TaskStatus) error {
	return e.host.UpdateTaskStatus(e.ctx, e.action.Workspace.ID, e.action.Task.ID, status)
}

func (e *hostEffects) RunFeedback(url string) (string, error) {
	return e.pipeline.Run(e.ctx, url)
}

func (e *hostEffects) Complete(output string) error {
	return e.host.CompleteTask(e.ctx, e.action.Workspace.ID, e.action.Task.ID, output)
}

func (e *hostEffects) RequestHumanAssistance(req modal.AssistanceRequest) error {
	req.AgentDump.RequestID = uuid.NewString()
	return e.host.RequestHumanAssistance(e.ctx, e.action.Workspace.ID, e.action.Task.ID, req)
}

func (e *hostEffects) MarkErrored(cause string) error {
	return e.host.MarkTaskAsErrored(e.ctx, e.action.Workspace.ID, e.action.Task.ID, cause)
}
