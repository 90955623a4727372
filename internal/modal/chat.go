package modal

import (
	"fmt"
	"time"
)

type ChatMessage struct {
	ID        int       `json:"id,omitempty"`
	Author    string    `json:"author"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ChatAction is the respond-chat-message delivery from the host runtime.
type ChatAction struct {
	Type      string        `json:"type"`
	Me        Agent         `json:"me"`
	Workspace Workspace     `json:"workspace"`
	Messages  []ChatMessage `json:"messages"`
}

// LastMessage returns the text of the newest message, or "" when there is none.
func (a *ChatAction) LastMessage() string {
	if a == nil || len(a.Messages) == 0 {
		return ""
	}
	return a.Messages[len(a.Messages)-1].Message
}

// ConversationID keys per-conversation state; one agent chat per workspace.
func (a *ChatAction) ConversationID() string {
	return fmt.Sprintf("%d:%d", a.Workspace.ID, a.Me.ID)
}
