package workflows

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/temporal"
	tests "go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"eaa-compliance-agent/internal/activities"
	"eaa-compliance-agent/internal/feedback"
	"eaa-compliance-agent/internal/modal"
	"eaa-compliance-agent/internal/orchestrator"
)

const (
	testWorkspace = 7
	testTask      = 42
)

type ProcessTaskSuite struct {
	suite.Suite
	tests.WorkflowTestSuite
	env *tests.TestWorkflowEnvironment
}

func (s *ProcessTaskSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.env.RegisterWorkflow(ProcessTask)
	s.env.RegisterActivity(&activities.Activities{})
}

func (s *ProcessTaskSuite) TearDownTest() {
	s.env.AssertExpectations(s.T())
}

func action(task *modal.Task) modal.TaskAction {
	return modal.TaskAction{Type: "do-task", Workspace: modal.Workspace{ID: testWorkspace}, Me: modal.Agent{ID: 1}, Task: task}
}

func status(st modal.TaskStatus) activities.StatusInput {
	return activities.StatusInput{WorkspaceID: testWorkspace, TaskID: testTask, Status: st}
}

func (s *ProcessTaskSuite) queryState() TaskState {
	val, err := s.env.QueryWorkflow(QueryTaskState)
	s.Require().NoError(err)
	var st TaskState
	s.Require().NoError(val.Get(&st))
	return st
}

func (s *ProcessTaskSuite) TestCompletesFromInput() {
	s.env.OnActivity("UpdateTaskStatus", mock.Anything, status(modal.TaskInProgress)).Return(nil).Once()
	s.env.OnActivity("RunFeedback", mock.Anything, "https://site.test").Return("report", nil).Once()
	s.env.OnActivity("CompleteTask", mock.Anything, activities.CompleteInput{
		WorkspaceID: testWorkspace, TaskID: testTask, Output: orchestrator.CompletionPrefix + "report",
	}).Return(nil).Once()

	s.env.ExecuteWorkflow(ProcessTask, TaskInput{Action: action(&modal.Task{ID: testTask, Input: "please check https://site.test"})})
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result modal.TaskStatus
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal(modal.TaskCompleted, result)

	st := s.queryState()
	s.Equal(modal.TaskCompleted, st.Status)
	s.Equal("https://site.test", st.URL)
	s.Equal(1, st.Deliveries)
}

func (s *ProcessTaskSuite) TestEscalatesThenResumesOnRedelivery() {
	s.env.OnActivity("UpdateTaskStatus", mock.Anything, status(modal.TaskInProgress)).Return(nil).Twice()
	s.env.OnActivity("RequestHumanAssistance", mock.Anything, mock.MatchedBy(func(in activities.AssistanceInput) bool {
		return in.TaskID == testTask &&
			in.Request.Question == orchestrator.EscalationQuestion &&
			in.Request.AgentDump.RequestID != ""
	})).Return(nil).Once()
	s.env.OnActivity("RunFeedback", mock.Anything, "https://answer.test").Return("report", nil).Once()
	s.env.OnActivity("CompleteTask", mock.Anything, mock.Anything).Return(nil).Once()

	s.env.RegisterDelayedCallback(func() {
		s.Equal(modal.TaskAwaitingHumanAssistance, s.queryState().Status)
		s.env.SignalWorkflow(TaskRedeliveredSignal, action(&modal.Task{ID: 999, Input: "https://wrong.test"}))
	}, time.Millisecond)
	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(TaskRedeliveredSignal, action(&modal.Task{
			ID:                      testTask,
			HumanAssistanceRequests: []modal.HumanAssistanceRequest{{ID: 1, HumanResponse: "here: https://answer.test"}},
		}))
	}, 2*time.Millisecond)

	s.env.ExecuteWorkflow(ProcessTask, TaskInput{Action: action(&modal.Task{ID: testTask})})
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result modal.TaskStatus
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal(modal.TaskCompleted, result)
	s.Equal(2, s.queryState().Deliveries)
}

func (s *ProcessTaskSuite) TestPipelineFailureMarksErrored() {
	s.env.OnActivity("UpdateTaskStatus", mock.Anything, status(modal.TaskInProgress)).Return(nil).Once()
	s.env.OnActivity("RunFeedback", mock.Anything, "https://site.test").Return("",
		temporal.NewNonRetryableApplicationError("accessibility audit failed for https://site.test: timeout", feedback.KindAuditFailure, nil)).Once()
	s.env.OnActivity("MarkTaskAsErrored", mock.Anything, activities.ErroredInput{
		WorkspaceID: testWorkspace,
		TaskID:      testTask,
		Error:       "Error: accessibility audit failed for https://site.test: timeout",
	}).Return(nil).Once()

	s.env.ExecuteWorkflow(ProcessTask, TaskInput{Action: action(&modal.Task{ID: testTask, Input: "https://site.test"})})
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result modal.TaskStatus
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal(modal.TaskErrored, result)
	s.Contains(s.queryState().Error, "timeout")
}

func (s *ProcessTaskSuite) TestMarkErroredFailureFailsWorkflow() {
	s.env.OnActivity("UpdateTaskStatus", mock.Anything, status(modal.TaskInProgress)).Return(temporal.NewApplicationError("status 500", "")).Once()
	s.env.OnActivity("MarkTaskAsErrored", mock.Anything, mock.Anything).Return(temporal.NewApplicationError("status 500", "")).Once()

	s.env.ExecuteWorkflow(ProcessTask, TaskInput{Action: action(&modal.Task{ID: testTask})})
	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func (s *ProcessTaskSuite) auditKinds() []string {
	val, err := s.env.QueryWorkflow(QueryAuditLog)
	s.Require().NoError(err)
	var events []modal.AuditEvent
	s.Require().NoError(val.Get(&events))
	kinds := make([]string, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (s *ProcessTaskSuite) TestStaleRedeliveryDoesNotEscalateAgain() {
	s.env.OnActivity("UpdateTaskStatus", mock.Anything, status(modal.TaskInProgress)).Return(nil).Twice()
	s.env.OnActivity("RequestHumanAssistance", mock.Anything, mock.Anything).Return(nil).Once()
	s.env.OnActivity("RunFeedback", mock.Anything, "https://answer.test").Return("report", nil).Once()
	s.env.OnActivity("CompleteTask", mock.Anything, mock.Anything).Return(nil).Once()

	s.env.RegisterDelayedCallback(func() {
		// Same snapshot as the original delivery: no human response yet.
		s.env.SignalWorkflow(TaskRedeliveredSignal, action(&modal.Task{ID: testTask}))
	}, time.Millisecond)
	s.env.RegisterDelayedCallback(func() {
		s.Equal(modal.TaskAwaitingHumanAssistance, s.queryState().Status)
		s.env.SignalWorkflow(TaskRedeliveredSignal, action(&modal.Task{
			ID:                      testTask,
			HumanAssistanceRequests: []modal.HumanAssistanceRequest{{ID: 1, HumanResponse: "https://answer.test"}},
		}))
	}, 2*time.Millisecond)

	s.env.ExecuteWorkflow(ProcessTask, TaskInput{Action: action(&modal.Task{ID: testTask})})
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	s.Equal(2, s.queryState().Deliveries)
	s.Contains(s.auditKinds(), "REDELIVERY_IGNORED")
}

func (s *ProcessTaskSuite) TestRedeliveryAfterFinishIsRecorded() {
	s.env.OnActivity("UpdateTaskStatus", mock.Anything, status(modal.TaskInProgress)).Return(nil).Once()
	s.env.OnActivity("RunFeedback", mock.Anything, "https://site.test").Return("report", nil).Once()
	s.env.OnActivity("CompleteTask", mock.Anything, mock.Anything).Return(nil).Once()

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(TaskRedeliveredSignal, action(&modal.Task{
			ID:                      testTask,
			Input:                   "https://site.test",
			HumanAssistanceRequests: []modal.HumanAssistanceRequest{{ID: 1, HumanResponse: "https://other.test"}},
		}))
	}, 0)

	s.env.ExecuteWorkflow(ProcessTask, TaskInput{Action: action(&modal.Task{ID: testTask, Input: "https://site.test"})})
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	kinds := s.auditKinds()
	s.Contains(kinds, "REDELIVERY_IGNORED")
	s.Equal("DONE", kinds[len(kinds)-1])
}

func (s *ProcessTaskSuite) TestContinuesAsNewAtDeliveryLimit() {
	defer func(limit int) { maxDeliveriesPerRun = limit }(maxDeliveriesPerRun)
	maxDeliveriesPerRun = 2

	s.env.OnActivity("UpdateTaskStatus", mock.Anything, status(modal.TaskInProgress)).Return(nil).Twice()
	s.env.OnActivity("RequestHumanAssistance", mock.Anything, mock.Anything).Return(nil).Twice()

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(TaskRedeliveredSignal, action(&modal.Task{
			ID:                      testTask,
			HumanAssistanceRequests: []modal.HumanAssistanceRequest{{ID: 1, HumanResponse: "not a link"}},
		}))
	}, time.Millisecond)

	s.env.ExecuteWorkflow(ProcessTask, TaskInput{
		Action:     action(&modal.Task{ID: testTask}),
		Deliveries: 5,
	})
	s.True(s.env.IsWorkflowCompleted())
	s.True(workflow.IsContinueAsNewError(s.env.GetWorkflowError()))
}

func (s *ProcessTaskSuite) TestContinuedRunWaitsWithoutEscalating() {
	s.env.OnActivity("UpdateTaskStatus", mock.Anything, status(modal.TaskInProgress)).Return(nil).Once()
	s.env.OnActivity("RunFeedback", mock.Anything, "https://answer.test").Return("report", nil).Once()
	s.env.OnActivity("CompleteTask", mock.Anything, mock.Anything).Return(nil).Once()

	s.env.RegisterDelayedCallback(func() {
		s.Equal(modal.TaskAwaitingHumanAssistance, s.queryState().Status)
		s.env.SignalWorkflow(TaskRedeliveredSignal, action(&modal.Task{
			ID:                      testTask,
			HumanAssistanceRequests: []modal.HumanAssistanceRequest{{ID: 1, HumanResponse: "https://answer.test"}},
		}))
	}, time.Millisecond)

	s.env.ExecuteWorkflow(ProcessTask, TaskInput{
		Action:     action(&modal.Task{ID: testTask}),
		Awaiting:   true,
		Deliveries: 40,
	})
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	s.Equal(41, s.queryState().Deliveries)
}

func TestActivityCause_StripsApplicationEnvelope(t *testing.T) {
	err := activityCause(temporal.NewNonRetryableApplicationError("accessibility audit failed for https://site.test: timeout", feedback.KindAuditFailure, nil))
	assert.EqualError(t, err, "accessibility audit failed for https://site.test: timeout")

	plain := errors.New("boom")
	assert.Equal(t, plain, activityCause(plain))
}

func (s *ProcessTaskSuite) TestMissingTaskIsNoop() {
	s.env.ExecuteWorkflow(ProcessTask, TaskInput{Action: action(nil)})
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result modal.TaskStatus
	s.NoError(s.env.GetWorkflowResult(&result))
	s.Equal(modal.TaskStatus(""), result)
}

func TestProcessTaskSuite(t *testing.T) {
	suite.Run(t, new(ProcessTaskSuite))
}
