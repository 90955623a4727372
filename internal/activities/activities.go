package activities

import (
	"context"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"eaa-compliance-agent/internal/feedback"
	"eaa-compliance-agent/internal/host"
	"eaa-compliance-agent/internal/modal"
)

type StatusInput struct {
	WorkspaceID int              `json:"workspaceId"`
	TaskID      int              `json:"taskId"`
	Status      modal.TaskStatus `json:"status"`
}

type CompleteInput struct {
	WorkspaceID int    `json:"workspaceId"`
	TaskID      int    `json:"taskId"`
	Output      string `json:"output"`
}

type ErroredInput struct {
	WorkspaceID int    `json:"workspaceId"`
	TaskID      int    `json:"taskId"`
	Error       string `json:"error"`
}

type AssistanceInput struct {
	WorkspaceID int                     `json:"workspaceId"`
	TaskID      int                     `json:"taskId"`
	Request     modal.AssistanceRequest `json:"request"`
}

// Activities are the side effects of a task workflow: host callbacks and the feedback pipeline.
type Activities struct {
	Host     host.Host
	Pipeline feedback.Runner
}

func (a *Activities) UpdateTaskStatus(ctx context.Context, in StatusInput) error {
	return a.Host.UpdateTaskStatus(ctx, in.WorkspaceID, in.TaskID, in.Status)
}

// RunFeedback surfaces pipeline failures as non-retryable errors typed by failure kind.
func (a *Activities) RunFeedback(ctx context.Context, url string) (string, error) {
	logger := activity.GetLogger(ctx)
	report, err := a.Pipeline.Run(ctx, url)
	if err != nil {
		kind := feedback.Kind(err)
		logger.Warn("feedback pipeline failed", "url", url, "kind", kind, "error", err)
		return "", temporal.NewNonRetryableApplicationError(err.Error(), kind, nil)
	}
	return report, nil
}

func (a *Activities) CompleteTask(ctx context.Context, in CompleteInput) error {
	return a.Host.CompleteTask(ctx, in.WorkspaceID, in.TaskID, in.Output)
}

func (a *Activities) MarkTaskAsErrored(ctx context.Context, in ErroredInput) error {
	return a.Host.MarkTaskAsErrored(ctx, in.WorkspaceID, in.TaskID, in.Error)
}

func (a *Activities) RequestHumanAssistance(ctx context.Context, in AssistanceInput) error {
	return a.Host.RequestHumanAssistance(ctx, in.WorkspaceID, in.TaskID, in.Request)
}
