package modal

import "time"

type Workspace struct {
	ID int `json:"id"`
}

type Agent struct {
	ID int `json:"id"`
}

// HumanAssistanceRequest is a previously issued request as the host reports it back.
// HumanResponse stays empty until somebody answers.
type HumanAssistanceRequest struct {
	ID            int    `json:"id"`
	Type          string `json:"type"`
	Question      any    `json:"question,omitempty"`
	HumanResponse string `json:"humanResponse,omitempty"`
	Status        string `json:"status,omitempty"`
}

type Task struct {
	ID                      int                      `json:"id"`
	Description             string                   `json:"description,omitempty"`
	Input                   string                   `json:"input,omitempty"`
	ExpectedOutput          string                   `json:"expectedOutput,omitempty"`
	HumanAssistanceRequests []HumanAssistanceRequest `json:"humanAssistanceRequests,omitempty"`
}

// LastHumanResponse returns the answer attached to the most recent assistance request.
func (t *Task) LastHumanResponse() string {
	if t == nil || len(t.HumanAssistanceRequests) == 0 {
		return ""
	}
	return t.HumanAssistanceRequests[len(t.HumanAssistanceRequests)-1].HumanResponse
}

// TaskAction is the do-task delivery from the host runtime.
type TaskAction struct {
	Type      string        `json:"type"`
	Me        Agent         `json:"me"`
	Task      *Task         `json:"task"`
	Workspace Workspace     `json:"workspace"`
	Messages  []ChatMessage `json:"messages,omitempty"`
}

// AgentDump is the context bundled with an outbound assistance request.
type AgentDump struct {
	RequestID           string        `json:"requestId"`
	ConversationHistory []ChatMessage `json:"conversationHistory"`
	ExpectedFormat      string        `json:"expectedFormat"`
	ProcessResponse     bool          `json:"processResponse"`
}

// AssistanceRequest is what the agent sends when it cannot proceed on its own.
type AssistanceRequest struct {
	Type      AssistanceType `json:"type"`
	Question  string         `json:"question"`
	AgentDump AgentDump      `json:"agentDump"`
}

type AuditEvent struct {
	At      time.Time      `json:"at"`
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}
