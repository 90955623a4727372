// Package orchestrator decides what happens to a task delivered by the host:
// audit the site it names, ask a human for a URL, or report the failure.
package orchestrator

import (
	"fmt"

	"go.temporal.io/sdk/log"

	"eaa-compliance-agent/internal/feedback"
	"eaa-compliance-agent/internal/modal"
	"eaa-compliance-agent/internal/urlx"
)

const (
	CompletionPrefix   = "EAA Compliance Analysis Results:\n\n"
	EscalationQuestion = "⚠️ I need a valid URL to proceed.\n\n💡 Please provide a properly formatted URL including the protocol, e.g. `https://example.com`."
	ExpectedFormat     = "A valid URL (including http:// or https://)."
)

// Effects performs the side effects of one task run. Calls are made strictly in sequence.
type Effects interface {
	UpdateStatus(status modal.TaskStatus) error
	RunFeedback(url string) (string, error)
	Complete(output string) error
	RequestHumanAssistance(req modal.AssistanceRequest) error
	MarkErrored(cause string) error
}

type Source string

const (
	SourceNone          Source = ""
	SourceHumanResponse Source = "human-response"
	SourceTaskInput     Source = "task-input"
)

type Target struct {
	URL    string
	Source Source
}

// Resolve picks the URL to audit. The latest human response wins over the task
// input; a candidate that does not validate is treated as absent.
func Resolve(task *modal.Task) Target {
	if task == nil {
		return Target{}
	}
	if response := task.LastHumanResponse(); response != "" {
		if url, ok := urlx.First(response); ok && urlx.Valid(url) {
			return Target{URL: url, Source: SourceHumanResponse}
		}
	}
	if task.Input != "" {
		if url, ok := urlx.First(task.Input); ok && urlx.Valid(url) {
			return Target{URL: url, Source: SourceTaskInput}
		}
	}
	return Target{}
}

// EscalationRequest asks for a URL and hands the conversation to whoever answers.
func EscalationRequest(action modal.TaskAction) modal.AssistanceRequest {
	history := action.Messages
	if history == nil {
		history = []modal.ChatMessage{}
	}
	return modal.AssistanceRequest{
		Type:     modal.AssistanceText,
		Question: EscalationQuestion,
		AgentDump: modal.AgentDump{
			ConversationHistory: history,
			ExpectedFormat:      ExpectedFormat,
			ProcessResponse:     true,
		},
	}
}

// Drive runs one delivery of a task to a resting state. The returned status is
// "" only when the action carried no task. An error is returned only when the
// task could not even be marked as errored.
func Drive(action modal.TaskAction, fx Effects, logger log.Logger) (modal.TaskStatus, error) {
	task := action.Task
	if task == nil {
		logger.Warn("no task found in action", "workspaceID", action.Workspace.ID, "type", action.Type)
		return "", nil
	}
	logger = log.With(logger, "taskID", task.ID, "workspaceID", action.Workspace.ID)
	logger.Info("processing task")

	status, err := drive(action, fx, logger)
	if err == nil {
		return status, nil
	}

	logger.Error("task failed", "error", err.Error(), "kind", feedback.Kind(err))
	if markErr := fx.MarkErrored("Error: " + err.Error()); markErr != nil {
		return modal.TaskErrored, fmt.Errorf("mark task %d as errored: %w", task.ID, markErr)
	}
	return modal.TaskErrored, nil
}

func drive(action modal.TaskAction, fx Effects, logger log.Logger) (modal.TaskStatus, error) {
	if err := fx.UpdateStatus(modal.TaskInProgress); err != nil {
		return "", err
	}

	target := Resolve(action.Task)
	if target.URL == "" {
		logger.Info("no valid URL found, requesting human assistance", "assistanceRequests", len(action.Task.HumanAssistanceRequests))
		if err := fx.RequestHumanAssistance(EscalationRequest(action)); err != nil {
			return "", err
		}
		return modal.TaskAwaitingHumanAssistance, nil
	}

	logger.Info("running feedback pipeline", "url", target.URL, "source", string(target.Source))
	report, err := fx.RunFeedback(target.URL)
	if err != nil {
		return "", err
	}
	if err := fx.Complete(CompletionPrefix + report); err != nil {
		return "", err
	}
	return modal.TaskCompleted, nil
}
