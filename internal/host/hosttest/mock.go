// Package hosttest provides a testify mock of the host callbacks.
package hosttest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"eaa-compliance-agent/internal/modal"
)

type Mock struct {
	mock.Mock
}

func (m *Mock) SendChatMessage(ctx context.Context, workspaceID int, agentID int, message string) error {
	return m.Called(ctx, workspaceID, agentID, message).Error(0)
}

func (m *Mock) UpdateTaskStatus(ctx context.Context, workspaceID int, taskID int, status modal.TaskStatus) error {
	return m.Called(ctx, workspaceID, taskID, status).Error(0)
}

func (m *Mock) CompleteTask(ctx context.Context, workspaceID int, taskID int, output string) error {
	return m.Called(ctx, workspaceID, taskID, output).Error(0)
}

func (m *Mock) MarkTaskAsErrored(ctx context.Context, workspaceID int, taskID int, cause string) error {
	return m.Called(ctx, workspaceID, taskID, cause).Error(0)
}

func (m *Mock) RequestHumanAssistance(ctx context.Context, workspaceID int, taskID int, req modal.AssistanceRequest) error {
	return m.Called(ctx, workspaceID, taskID, req).Error(0)
}
