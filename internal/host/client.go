package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"eaa-compliance-agent/internal/modal"
)

const DefaultBaseURL = "https://api.openserv.ai"

type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL string, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) SendChatMessage(ctx context.Context, workspaceID int, agentID int, message string) error {
	path := fmt.Sprintf("/workspaces/%d/agent-chat/%d/message", workspaceID, agentID)
	return c.do(ctx, http.MethodPost, path, map[string]any{"message": message})
}

func (c *Client) UpdateTaskStatus(ctx context.Context, workspaceID int, taskID int, status modal.TaskStatus) error {
	path := fmt.Sprintf("/workspaces/%d/tasks/%d/status", workspaceID, taskID)
	return c.do(ctx, http.MethodPut, path, map[string]any{"status": status})
}

func (c *Client) CompleteTask(ctx context.Context, workspaceID int, taskID int, output string) error {
	path := fmt.Sprintf("/workspaces/%d/tasks/%d/complete", workspaceID, taskID)
	return c.do(ctx, http.MethodPut, path, map[string]any{"output": output})
}

func (c *Client) MarkTaskAsErrored(ctx context.Context, workspaceID int, taskID int, cause string) error {
	path := fmt.Sprintf("/workspaces/%d/tasks/%d/error", workspaceID, taskID)
	return c.do(ctx, http.MethodPost, path, map[string]any{"error": cause})
}

func (c *Client) RequestHumanAssistance(ctx context.Context, workspaceID int, taskID int, req modal.AssistanceRequest) error {
	path := fmt.Sprintf("/workspaces/%d/tasks/%d/human-assistance", workspaceID, taskID)
	return c.do(ctx, http.MethodPost, path, req)
}

func (c *Client) do(ctx context.Context, method string, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-openserv-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
