package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"eaa-compliance-agent/internal/modal"
	"eaa-compliance-agent/internal/workflows"
)

type chatResponder interface {
	Respond(ctx context.Context, action modal.ChatAction) error
}

type taskDispatcher interface {
	Dispatch(ctx context.Context, action modal.TaskAction) (workflows.Delivery, error)
}

type taskQuerier interface {
	TaskState(ctx context.Context, workflowID string, runID string) (workflows.TaskState, error)
	AuditLog(ctx context.Context, workflowID string, runID string) ([]modal.AuditEvent, error)
}

type deps struct {
	logger *zap.Logger
	chat   chatResponder
	tasks  taskDispatcher
	// nil in inline mode; task inspection needs workflow state.
	queries taskQuerier
}

type taskAccepted struct {
	TaskID     int    `json:"taskId"`
	WorkflowID string `json:"workflowId,omitempty"`
	RunID      string `json:"runId,omitempty"`
	Started    bool   `json:"started"`
}

func newRouter(d deps) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/respond-chat-message", func(w http.ResponseWriter, r *http.Request) {
		var action modal.ChatAction
		if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
			http.Error(w, "invalid chat action body", http.StatusBadRequest)
			return
		}
		if err := d.chat.Respond(r.Context(), action); err != nil {
			d.logger.Error("chat response failed", zap.Error(err), zap.Int("workspaceID", action.Workspace.ID))
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Post("/do-task", func(w http.ResponseWriter, r *http.Request) {
		var action modal.TaskAction
		if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
			http.Error(w, "invalid task action body", http.StatusBadRequest)
			return
		}
		if action.Task == nil {
			d.logger.Warn("do-task without a task, ignoring", zap.Int("workspaceID", action.Workspace.ID))
			writeJSON(w, http.StatusAccepted, taskAccepted{})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		delivery, err := d.tasks.Dispatch(ctx, action)
		if err != nil {
			d.logger.Error("task dispatch failed", zap.Error(err), zap.Int("taskID", action.Task.ID))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusAccepted, taskAccepted{
			TaskID:     action.Task.ID,
			WorkflowID: delivery.WorkflowID,
			RunID:      delivery.RunID,
			Started:    delivery.Started,
		})
	})

	r.Get("/tasks/{taskId}/state", func(w http.ResponseWriter, r *http.Request) {
		wid, ok := taskWorkflowID(w, r, d.queries)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		state, err := d.queries.TaskState(ctx, wid, r.URL.Query().Get("runId"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, state)
	})

	r.Get("/tasks/{taskId}/audit", func(w http.ResponseWriter, r *http.Request) {
		wid, ok := taskWorkflowID(w, r, d.queries)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		events, err := d.queries.AuditLog(ctx, wid, r.URL.Query().Get("runId"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, events)
	})

	return r
}

func taskWorkflowID(w http.ResponseWriter, r *http.Request, q taskQuerier) (string, bool) {
	if q == nil {
		http.Error(w, "task inspection requires TASK_MODE=temporal", http.StatusNotFound)
		return "", false
	}
	id, err := strconv.Atoi(chi.URLParam(r, "taskId"))
	if err != nil {
		http.Error(w, "task id must be an integer", http.StatusBadRequest)
		return "", false
	}
	return workflows.WorkflowID(id), true
}

// temporalDispatcher hands tasks to the durable workflow.
type temporalDispatcher struct {
	service *workflows.Service
}

func (t temporalDispatcher) Dispatch(ctx context.Context, action modal.TaskAction) (workflows.Delivery, error) {
	return t.service.Deliver(ctx, action)
}

type taskRunner interface {
	DoTask(ctx context.Context, action modal.TaskAction) (modal.TaskStatus, error)
}

// inlineDispatcher runs the task in-process after the webhook has been acknowledged.
type inlineDispatcher struct {
	runner taskRunner
	logger *zap.Logger
}

func (i inlineDispatcher) Dispatch(_ context.Context, action modal.TaskAction) (workflows.Delivery, error) {
	if action.Task == nil {
		return workflows.Delivery{}, workflows.ErrMissingTask
	}
	go func() {
		status, err := i.runner.DoTask(context.Background(), action)
		if err != nil {
			i.logger.Error("inline task failed", zap.Error(err), zap.Int("taskID", action.Task.ID))
			return
		}
		i.logger.Info("inline task finished", zap.Int("taskID", action.Task.ID), zap.String("status", string(status)))
	}()
	return workflows.Delivery{Started: true}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
