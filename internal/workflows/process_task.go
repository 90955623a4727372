package workflows

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"eaa-compliance-agent/internal/activities"
	"eaa-compliance-agent/internal/metrics"
	"eaa-compliance-agent/internal/modal"
	"eaa-compliance-agent/internal/orchestrator"
)

const TaskQueue = "EAA_COMPLIANCE_TASK_QUEUE"
const TaskRedeliveredSignal = "TASK_REDELIVERED_SIGNAL"

const (
	QueryTaskState = "task_state"
	QueryAuditLog  = "audit_log"
)

const defaultActivityTimeout = 5 * time.Minute

// maxDeliveriesPerRun bounds one run's history; a task still awaiting help after
// that many deliveries in one run continues as new.
var maxDeliveriesPerRun = 20

type TaskInput struct {
	Action          modal.TaskAction `json:"action"`
	ActivityTimeout time.Duration    `json:"activityTimeout,omitempty"`
	// Awaiting resumes a continued run directly in the wait for a redelivery.
	Awaiting   bool `json:"awaiting,omitempty"`
	Deliveries int  `json:"deliveries,omitempty"`
}

type TaskState struct {
	TaskID      int              `json:"taskId"`
	WorkspaceID int              `json:"workspaceId"`
	Status      modal.TaskStatus `json:"status"`
	URL         string           `json:"url,omitempty"`
	Output      string           `json:"output,omitempty"`
	Error       string           `json:"error,omitempty"`
	Deliveries  int              `json:"deliveries"`
}

type workflowState struct {
	Task  TaskState          `json:"task"`
	Audit []modal.AuditEvent `json:"audit,omitempty"`
}

// ProcessTask drives one host task. While the task awaits human assistance the
// workflow stays open; a redelivery of the same task is re-evaluated from scratch.
func ProcessTask(ctx workflow.Context, in TaskInput) (modal.TaskStatus, error) {
	logger := workflow.GetLogger(ctx)

	state := &workflowState{
		Audit: make([]modal.AuditEvent, 0),
	}
	if in.Action.Task != nil {
		state.Task.TaskID = in.Action.Task.ID
		state.Task.WorkspaceID = in.Action.Workspace.ID
	}

	appendAudit := func(kind, message string, data map[string]any) {
		state.Audit = append(state.Audit, modal.AuditEvent{
			At:      workflow.Now(ctx),
			Kind:    kind,
			Message: message,
			Data:    data,
		})
	}

	_ = workflow.SetQueryHandler(ctx, QueryTaskState, func() (TaskState, error) {
		return state.Task, nil
	})
	_ = workflow.SetQueryHandler(ctx, QueryAuditLog, func() ([]modal.AuditEvent, error) {
		return state.Audit, nil
	})

	// One attempt per activity: retrying is left to whoever redelivers the task.
	timeout := in.ActivityTimeout
	if timeout <= 0 {
		timeout = defaultActivityTimeout
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	sigCh := workflow.GetSignalChannel(ctx, TaskRedeliveredSignal)
	action := in.Action
	state.Task.Deliveries = in.Deliveries
	awaiting := in.Awaiting
	if awaiting {
		state.Task.Status = modal.TaskAwaitingHumanAssistance
		appendAudit("CONTINUED", "run continued while awaiting human assistance", map[string]any{"deliveries": in.Deliveries})
	}

	for {
		if !awaiting {
			state.Task.Deliveries++
			state.Task.Error = ""
			appendAudit("DELIVERED", "task delivered", map[string]any{"delivery": state.Task.Deliveries})

			fx := &activityEffects{ctx: ctx, action: action, state: state, appendAudit: appendAudit}
			status, err := orchestrator.Drive(action, fx, logger)
			if status == "" {
				appendAudit("SKIPPED", "action carried no task", nil)
				return status, nil
			}
			state.Task.Status = status
			if !workflow.IsReplaying(ctx) {
				metrics.TaskOutcomes.WithLabelValues(string(status)).Inc()
			}
			if err != nil {
				appendAudit("ERROR", "task could not be marked as errored", map[string]any{"error": err.Error()})
				return status, err
			}
			if status.Terminal() {
				drainRedeliveries(sigCh, logger, appendAudit)
				appendAudit("DONE", "task finished", map[string]any{"status": status})
				return status, nil
			}
		}
		awaiting = false

		next, ok := receiveRedelivery(ctx, sigCh, action, false, logger, appendAudit)
		if !ok && state.Task.Deliveries-in.Deliveries >= maxDeliveriesPerRun {
			appendAudit("CONTINUE_AS_NEW", "history limit reached while awaiting human assistance", nil)
			return state.Task.Status, workflow.NewContinueAsNewError(ctx, ProcessTask, TaskInput{
				Action:          action,
				ActivityTimeout: in.ActivityTimeout,
				Awaiting:        true,
				Deliveries:      state.Task.Deliveries,
			})
		}
		if !ok {
			logger.Info("waiting for human assistance", "taskID", action.Task.ID)
			next, _ = receiveRedelivery(ctx, sigCh, action, true, logger, appendAudit)
		}
		action = next
		appendAudit("REDELIVERED", "task redelivered after human assistance", map[string]any{
			"assistanceRequests": len(action.Task.HumanAssistanceRequests),
		})
	}
}

// freshRedelivery reports whether next is the awaited task carrying an
// assistance request that current did not have yet.
func freshRedelivery(current, next modal.TaskAction) bool {
	return current.Task != nil && next.Task != nil &&
		next.Task.ID == current.Task.ID &&
		len(next.Task.HumanAssistanceRequests) > len(current.Task.HumanAssistanceRequests)
}

// receiveRedelivery returns the first fresh redelivery of current, discarding
// others. Without block it only consumes signals already buffered.
func receiveRedelivery(
	ctx workflow.Context,
	sigCh workflow.ReceiveChannel,
	current modal.TaskAction,
	block bool,
	logger log.Logger,
	appendAudit func(kind, message string, data map[string]any),
) (modal.TaskAction, bool) {
	for {
		var next modal.TaskAction
		if block {
			sigCh.Receive(ctx, &next)
		} else if !sigCh.ReceiveAsync(&next) {
			return modal.TaskAction{}, false
		}
		if freshRedelivery(current, next) {
			return next, true
		}
		logger.Warn("ignoring stale or foreign redelivery", "taskID", current.Task.ID)
		appendAudit("REDELIVERY_IGNORED", "redelivery carried no new human response", redeliveryData(next))
	}
}

// drainRedeliveries records signals that arrived after the task reached a final state.
func drainRedeliveries(
	sigCh workflow.ReceiveChannel,
	logger log.Logger,
	appendAudit func(kind, message string, data map[string]any),
) {
	var next modal.TaskAction
	for sigCh.ReceiveAsync(&next) {
		logger.Warn("redelivery arrived after the task finished")
		appendAudit("REDELIVERY_IGNORED", "task already finished", redeliveryData(next))
		next = modal.TaskAction{}
	}
}

func redeliveryData(a modal.TaskAction) map[string]any {
	if a.Task == nil {
		return nil
	}
	return map[string]any{"taskId": a.Task.ID, "assistanceRequests": len(a.Task.HumanAssistanceRequests)}
}

// activityEffects runs each orchestrator effect as a single activity.
type activityEffects struct {
	ctx         workflow.Context
	action      modal.TaskAction
	state       *workflowState
	appendAudit func(kind, message string, data map[string]any)
}

func (e *activityEffects) ids() (int, int) {
	return e.action.Workspace.ID, e.action.Task.ID
}

func (e *activityEffects) UpdateStatus(status modal.TaskStatus) error {
	ws, task := e.ids()
	err := workflow.ExecuteActivity(e.ctx, "UpdateTaskStatus", activities.StatusInput{WorkspaceID: ws, TaskID: task, Status: status}).Get(e.ctx, nil)
	if err != nil {
		return activityCause(err)
	}
	e.state.Task.Status = status
	e.appendAudit("STATUS", "task status updated", map[string]any{"status": status})
	return nil
}

func (e *activityEffects) RunFeedback(url string) (string, error) {
	e.state.Task.URL = url
	var report string
	if err := workflow.ExecuteActivity(e.ctx, "RunFeedback", url).Get(e.ctx, &report); err != nil {
		cause := activityCause(err)
		e.appendAudit("PIPELINE_FAILED", "feedback pipeline failed", map[string]any{"url": url, "error": cause.Error()})
		return "", cause
	}
	e.appendAudit("PIPELINE_DONE", "compliance report generated", map[string]any{"url": url})
	return report, nil
}

func (e *activityEffects) Complete(output string) error {
	ws, task := e.ids()
	err := workflow.ExecuteActivity(e.ctx, "CompleteTask", activities.CompleteInput{WorkspaceID: ws, TaskID: task, Output: output}).Get(e.ctx, nil)
	if err != nil {
		return activityCause(err)
	}
	e.state.Task.Output = output
	e.appendAudit("COMPLETED", "task completed", nil)
	return nil
}

func (e *activityEffects) RequestHumanAssistance(req modal.AssistanceRequest) error {
	ws, task := e.ids()
	var requestID string
	if err := workflow.SideEffect(e.ctx, func(workflow.Context) interface{} {
		return uuid.NewString()
	}).Get(&requestID); err != nil {
		return fmt.Errorf("generate request id: %w", err)
	}
	req.AgentDump.RequestID = requestID

	err := workflow.ExecuteActivity(e.ctx, "RequestHumanAssistance", activities.AssistanceInput{WorkspaceID: ws, TaskID: task, Request: req}).Get(e.ctx, nil)
	if err != nil {
		return activityCause(err)
	}
	e.appendAudit("HUMAN_ASSISTANCE_REQUESTED", "asked a human for a URL", map[string]any{"requestId": requestID})
	return nil
}

func (e *activityEffects) MarkErrored(cause string) error {
	ws, task := e.ids()
	e.state.Task.Error = cause
	err := workflow.ExecuteActivity(e.ctx, "MarkTaskAsErrored", activities.ErroredInput{WorkspaceID: ws, TaskID: task, Error: cause}).Get(e.ctx, nil)
	if err != nil {
		return activityCause(err)
	}
	e.appendAudit("ERRORED", "task marked as errored", map[string]any{"error": cause})
	return nil
}

// activityCause strips the activity and application envelopes so the reported
// message is the failure itself.
func activityCause(err error) error {
	var actErr *temporal.ActivityError
	if errors.As(err, &actErr) {
		if cause := errors.Unwrap(actErr); cause != nil {
			err = cause
		}
	}
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Message() != "" {
		return errors.New(appErr.Message())
	}
	return err
}
