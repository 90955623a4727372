package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.temporal.io/api/common/v1"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/workflow/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/mocks"

	"eaa-compliance-agent/internal/modal"
	"eaa-compliance-agent/internal/workflows"
)

func uiRequest(t *testing.T, tc *mocks.Client, q *mockQuerier, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	registerUIRoutes(r, tc, q)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestUI_OpenTasks(t *testing.T) {
	tc := mocks.NewClient(t)
	q := &mockQuerier{}
	tc.On("ListWorkflow", mock.Anything, mock.MatchedBy(func(req *workflowservice.ListWorkflowExecutionsRequest) bool {
		return req.Query == `WorkflowType = "ProcessTask" AND ExecutionStatus = "Running"`
	})).Return(&workflowservice.ListWorkflowExecutionsResponse{
		Executions: []*workflow.WorkflowExecutionInfo{{
			Execution: &common.WorkflowExecution{WorkflowId: "task-7", RunId: "run-7"},
			Status:    enums.WORKFLOW_EXECUTION_STATUS_RUNNING,
		}},
	}, nil)
	q.On("TaskState", mock.Anything, "task-7", "run-7").
		Return(workflows.TaskState{TaskID: 7, Status: modal.TaskAwaitingHumanAssistance}, nil)

	rec := uiRequest(t, tc, q, "/ui")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "awaiting-human-assistance")
	assert.Contains(t, rec.Body.String(), "/ui/wf/task-7?runId=run-7")
}

func TestUI_SearchByTaskID(t *testing.T) {
	tc := mocks.NewClient(t)
	tc.On("ListWorkflow", mock.Anything, mock.MatchedBy(func(req *workflowservice.ListWorkflowExecutionsRequest) bool {
		return req.Query == `WorkflowType = "ProcessTask" AND WorkflowId = "task-7"`
	})).Return(&workflowservice.ListWorkflowExecutionsResponse{
		Executions: []*workflow.WorkflowExecutionInfo{{
			Execution: &common.WorkflowExecution{WorkflowId: "task-7", RunId: "run-1"},
			Status:    enums.WORKFLOW_EXECUTION_STATUS_COMPLETED,
		}},
	}, nil)

	rec := uiRequest(t, tc, &mockQuerier{}, "/ui?tab=search&q=7")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "run-1")
}

func TestUI_ListError(t *testing.T) {
	tc := mocks.NewClient(t)
	tc.On("ListWorkflow", mock.Anything, mock.Anything).Return(nil, errors.New("visibility unavailable"))

	rec := uiRequest(t, tc, &mockQuerier{}, "/ui")
	assert.Contains(t, rec.Body.String(), "visibility unavailable")
}

func TestUI_Detail(t *testing.T) {
	q := &mockQuerier{}
	q.On("TaskState", mock.Anything, "task-7", "run-7").
		Return(workflows.TaskState{TaskID: 7, Status: modal.TaskCompleted, URL: "https://site.test", Output: "report body"}, nil)
	q.On("AuditLog", mock.Anything, "task-7", "run-7").
		Return([]modal.AuditEvent{{Kind: "COMPLETED", Message: "task completed"}}, nil)

	rec := uiRequest(t, mocks.NewClient(t), q, "/ui/wf/task-7?runId=run-7")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "report body")
	assert.Contains(t, rec.Body.String(), "COMPLETED")
}
