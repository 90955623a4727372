package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"eaa-compliance-agent/internal/modal"
)

var ErrMissingTask = errors.New("action carries no task")

type Delivery struct {
	WorkflowID string `json:"workflowId"`
	RunID      string `json:"runId,omitempty"`
	// Started is false when the task was signalled into an open workflow.
	Started bool `json:"started"`
}

type Service struct {
	client          client.Client
	taskQueue       string
	activityTimeout time.Duration
}

func NewService(c client.Client, taskQueue string, activityTimeout time.Duration) *Service {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	return &Service{client: c, taskQueue: taskQueue, activityTimeout: activityTimeout}
}

// Deliver starts a workflow for the task, or hands the redelivered task to the
// workflow already waiting on it.
func (s *Service) Deliver(ctx context.Context, action modal.TaskAction) (Delivery, error) {
	if action.Task == nil {
		return Delivery{}, ErrMissingTask
	}
	wid := WorkflowID(action.Task.ID)

	opts := client.StartWorkflowOptions{
		ID:                                       wid,
		TaskQueue:                                s.taskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
		WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}
	we, err := s.client.ExecuteWorkflow(ctx, opts, ProcessTask, TaskInput{Action: action, ActivityTimeout: s.activityTimeout})
	if err == nil {
		return Delivery{WorkflowID: we.GetID(), RunID: we.GetRunID(), Started: true}, nil
	}

	var running *serviceerror.WorkflowExecutionAlreadyStarted
	if !errors.As(err, &running) {
		return Delivery{}, fmt.Errorf("start workflow %s: %w", wid, err)
	}
	if err := s.client.SignalWorkflow(ctx, wid, "", TaskRedeliveredSignal, action); err != nil {
		return Delivery{}, fmt.Errorf("signal workflow %s: %w", wid, err)
	}
	return Delivery{WorkflowID: wid, RunID: running.RunId, Started: false}, nil
}

func (s *Service) TaskState(ctx context.Context, workflowID string, runID string) (TaskState, error) {
	var state TaskState
	qr, err := s.client.QueryWorkflow(ctx, workflowID, runID, QueryTaskState)
	if err != nil {
		return state, err
	}
	return state, qr.Get(&state)
}

func (s *Service) AuditLog(ctx context.Context, workflowID string, runID string) ([]modal.AuditEvent, error) {
	var events []modal.AuditEvent
	qr, err := s.client.QueryWorkflow(ctx, workflowID, runID, QueryAuditLog)
	if err != nil {
		return nil, err
	}
	return events, qr.Get(&events)
}

func WorkflowID(taskID int) string {
	return fmt.Sprintf("task-%d", taskID)
}
