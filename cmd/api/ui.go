package main

import (
	"context"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.temporal.io/api/workflowservice/v1"

	"eaa-compliance-agent/internal/modal"
	"eaa-compliance-agent/internal/workflows"
)

type workflowLister interface {
	ListWorkflow(ctx context.Context, request *workflowservice.ListWorkflowExecutionsRequest) (*workflowservice.ListWorkflowExecutionsResponse, error)
}

type uiServer struct {
	lister  workflowLister
	queries taskQuerier
	t       *template.Template
}

type uiTaskRow struct {
	WorkflowID string
	RunID      string
	Status     string
	State      workflows.TaskState
}

type uiIndexData struct {
	Tab   string
	Query string
	Rows  []uiTaskRow
	Error string
}

type uiDetailData struct {
	WorkflowID string
	RunID      string
	State      workflows.TaskState
	Audit      []modal.AuditEvent
	Error      string
}

const processTaskType = `WorkflowType = "ProcessTask"`

func registerUIRoutes(r chi.Router, lister workflowLister, queries taskQuerier) {
	t := template.Must(template.New("base").Parse(uiTemplates))
	s := &uiServer{lister: lister, queries: queries, t: t}

	r.Get("/ui", s.handleIndex)
	r.Get("/ui/wf/{workflowId}", s.handleDetail)
}

// handleIndex lists open task workflows, or searches every run of one task id.
func (s *uiServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if tab != "search" {
		tab = "open"
	}
	data := uiIndexData{Tab: tab, Query: q}

	query := processTaskType + ` AND ExecutionStatus = "Running"`
	if tab == "search" {
		if q == "" {
			_ = s.t.ExecuteTemplate(w, "index", data)
			return
		}
		query = processTaskType + ` AND WorkflowId = "task-` + q + `"`
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	resp, err := s.lister.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{
		Query:    query,
		PageSize: 200,
	})
	if err != nil {
		data.Error = err.Error()
		_ = s.t.ExecuteTemplate(w, "index", data)
		return
	}

	for _, ex := range resp.Executions {
		if ex.Execution == nil {
			continue
		}
		row := uiTaskRow{
			WorkflowID: ex.Execution.WorkflowId,
			RunID:      ex.Execution.RunId,
			Status:     ex.Status.String(),
		}
		// Closed runs are not queried; their state is in the detail page.
		if tab == "open" {
			if state, err := s.queries.TaskState(ctx, row.WorkflowID, row.RunID); err == nil {
				row.State = state
			}
		}
		data.Rows = append(data.Rows, row)
		if len(data.Rows) >= 100 {
			break
		}
	}

	_ = s.t.ExecuteTemplate(w, "index", data)
}

func (s *uiServer) handleDetail(w http.ResponseWriter, r *http.Request) {
	wid := chi.URLParam(r, "workflowId")
	rid := r.URL.Query().Get("runId")
	data := uiDetailData{WorkflowID: wid, RunID: rid}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	state, err := s.queries.TaskState(ctx, wid, rid)
	if err != nil {
		data.Error = err.Error()
		_ = s.t.ExecuteTemplate(w, "detail", data)
		return
	}
	data.State = state

	audit, _ := s.queries.AuditLog(ctx, wid, rid)
	data.Audit = audit

	_ = s.t.ExecuteTemplate(w, "detail", data)
}

const uiTemplates = `
{{define "index"}}
<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <title>EAA Compliance Agent</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    .tabs a { margin-right: 12px; }
    table { border-collapse: collapse; width: 100%; margin-top: 12px; }
    th, td { border: 1px solid #ddd; padding: 8px; }
    .err { color: #b00020; }
    .muted { color: #666; }
  </style>
</head>
<body>
  <h2>EAA Compliance Agent</h2>

  <div class="tabs">
    <a href="/ui?tab=open">Open tasks</a>
    <a href="/ui?tab=search">Search</a>
  </div>

  {{if .Error}}<p class="err">{{.Error}}</p>{{end}}

  {{if eq .Tab "open"}}
    <h3>Open tasks</h3>
    <p class="muted">Tasks still in progress or waiting for a human response.</p>
    <table>
      <thead><tr><th>Task</th><th>Status</th><th>URL</th><th>Deliveries</th><th>Workflow</th></tr></thead>
      <tbody>
      {{range .Rows}}
        <tr>
          <td>{{.State.TaskID}}</td>
          <td>{{.State.Status}}</td>
          <td>{{.State.URL}}</td>
          <td>{{.State.Deliveries}}</td>
          <td><a href="/ui/wf/{{.WorkflowID}}?runId={{.RunID}}">{{.WorkflowID}}</a></td>
        </tr>
      {{end}}
      </tbody>
    </table>
  {{else}}
    <h3>Search by task id</h3>
    <form method="get" action="/ui">
      <input type="hidden" name="tab" value="search"/>
      <input name="q" placeholder="42" value="{{.Query}}" style="width: 320px;"/>
      <button type="submit">Search</button>
    </form>

    {{if .Query}}
      <h4>Runs</h4>
      <table>
        <thead><tr><th>Workflow</th><th>Run</th><th>Execution</th></tr></thead>
        <tbody>
        {{range .Rows}}
          <tr>
            <td><a href="/ui/wf/{{.WorkflowID}}?runId={{.RunID}}">{{.WorkflowID}}</a></td>
            <td>{{.RunID}}</td>
            <td>{{.Status}}</td>
          </tr>
        {{end}}
        </tbody>
      </table>
    {{end}}
  {{end}}
</body>
</html>
{{end}}

{{define "detail"}}
<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <title>Task Detail</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    .err { color: #b00020; }
    pre { background: #f7f7f7; padding: 12px; overflow: auto; white-space: pre-wrap; }
    table { border-collapse: collapse; width: 100%; margin-top: 12px; }
    th, td { border: 1px solid #ddd; padding: 8px; }
  </style>
</head>
<body>
  <a href="/ui">← Back</a>
  <h2>Task Detail</h2>

  {{if .Error}}<p class="err">{{.Error}}</p>{{end}}

  <p><b>WorkflowID:</b> {{.WorkflowID}}<br/>
     <b>RunID:</b> {{.RunID}}</p>

  <h3>State</h3>
  <p><b>Task:</b> {{.State.TaskID}} (workspace {{.State.WorkspaceID}})<br/>
     <b>Status:</b> {{.State.Status}}<br/>
     <b>URL:</b> {{.State.URL}}<br/>
     <b>Deliveries:</b> {{.State.Deliveries}}</p>
  {{if .State.Error}}<p class="err">{{.State.Error}}</p>{{end}}
  {{if .State.Output}}<pre>{{.State.Output}}</pre>{{end}}

  <h3>Audit Log</h3>
  <table>
    <thead><tr><th>Time</th><th>Kind</th><th>Message</th></tr></thead>
    <tbody>
      {{range .Audit}}
        <tr>
          <td>{{.At}}</td>
          <td>{{.Kind}}</td>
          <td>{{.Message}}</td>
        </tr>
      {{end}}
    </tbody>
  </table>
</body>
</html>
{{end}}
`
