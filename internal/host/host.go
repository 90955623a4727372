// Package host talks to the agent platform that delivers chats and tasks.
package host

import (
	"context"

	"eaa-compliance-agent/internal/modal"
)

// Host is the set of platform callbacks the agent depends on.
type Host interface {
	SendChatMessage(ctx context.Context, workspaceID int, agentID int, message string) error
	UpdateTaskStatus(ctx context.Context, workspaceID int, taskID int, status modal.TaskStatus) error
	CompleteTask(ctx context.Context, workspaceID int, taskID int, output string) error
	MarkTaskAsErrored(ctx context.Context, workspaceID int, taskID int, cause string) error
	RequestHumanAssistance(ctx context.Context, workspaceID int, taskID int, req modal.AssistanceRequest) error
}
