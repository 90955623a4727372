package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	"eaa-compliance-agent/internal/modal"
)

func TestDeliver_StartsWorkflow(t *testing.T) {
	mockClient := mocks.NewClient(t)
	workflowRun := mocks.NewWorkflowRun(t)
	act := action(&modal.Task{ID: 5, Input: "https://site.test"})

	mockClient.On(
		"ExecuteWorkflow",
		mock.Anything,
		mock.MatchedBy(func(opts client.StartWorkflowOptions) bool {
			return opts.ID == "task-5" &&
				opts.TaskQueue == "queue-test" &&
				opts.WorkflowExecutionErrorWhenAlreadyStarted &&
				opts.WorkflowIDReusePolicy == enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE
		}),
		mock.Anything,
		TaskInput{Action: act, ActivityTimeout: time.Minute},
	).Return(workflowRun, nil)
	workflowRun.On("GetID").Return("task-5")
	workflowRun.On("GetRunID").Return("run-1")

	delivery, err := NewService(mockClient, "queue-test", time.Minute).Deliver(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, Delivery{WorkflowID: "task-5", RunID: "run-1", Started: true}, delivery)
}

func TestDeliver_SignalsOpenWorkflow(t *testing.T) {
	mockClient := mocks.NewClient(t)
	act := action(&modal.Task{ID: 5, HumanAssistanceRequests: []modal.HumanAssistanceRequest{{HumanResponse: "https://site.test"}}})

	mockClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", "run-open"))
	mockClient.On("SignalWorkflow", mock.Anything, "task-5", "", TaskRedeliveredSignal, act).Return(nil).Once()

	delivery, err := NewService(mockClient, "", 0).Deliver(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, Delivery{WorkflowID: "task-5", RunID: "run-open", Started: false}, delivery)
}

func TestDeliver_StartError(t *testing.T) {
	mockClient := mocks.NewClient(t)
	mockClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("unavailable"))

	_, err := NewService(mockClient, "", 0).Deliver(context.Background(), action(&modal.Task{ID: 5}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start workflow task-5")
}

func TestDeliver_MissingTask(t *testing.T) {
	mockClient := mocks.NewClient(t)
	_, err := NewService(mockClient, "", 0).Deliver(context.Background(), action(nil))
	assert.ErrorIs(t, err, ErrMissingTask)
}

func TestTaskState_Query(t *testing.T) {
	mockClient := mocks.NewClient(t)
	value := mocks.NewEncodedValue(t)
	value.On("Get", mock.AnythingOfType("*workflows.TaskState")).Run(func(args mock.Arguments) {
		*args.Get(0).(*TaskState) = TaskState{TaskID: 5, Status: modal.TaskCompleted}
	}).Return(nil)
	mockClient.On("QueryWorkflow", mock.Anything, "task-5", "", QueryTaskState).Return(value, nil)

	st, err := NewService(mockClient, "", 0).TaskState(context.Background(), "task-5", "")
	require.NoError(t, err)
	assert.Equal(t, modal.TaskCompleted, st.Status)
}

func TestNewService_DefaultQueue(t *testing.T) {
	assert.Equal(t, TaskQueue, NewService(mocks.NewClient(t), "", 0).taskQueue)
}
