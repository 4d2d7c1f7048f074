package assistant

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Run statuses reported by the external API. A run transitions through
// queued -> in_progress -> completed/failed/cancelled/expired.
const (
	RunQueued     = "queued"
	RunInProgress = "in_progress"
	RunCompleted  = "completed"
	RunFailed     = "failed"
	RunCancelled  = "cancelled"
	RunExpired    = "expired"
)

type ClientConfig struct {
	BaseURL       string
	APIKey        string
	APIVersion    string
	Model         string
	VectorStoreId string
	AssistantName string
	Instructions  string
}

// Client wraps the assistant/thread/run surface of an OpenAI-compatible
// Assistants API, using Azure-style authentication (api-key header plus
// api-version query parameter).
type Client struct {
	client *resty.Client
	cfg    ClientConfig
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.AssistantName == "" {
		cfg.AssistantName = "Think-Tank-AI"
	}
	if cfg.Instructions == "" {
		cfg.Instructions = ThinkTankInstructions
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("api-key", cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("api-version", cfg.APIVersion)

	return &Client{client: client, cfg: cfg}, nil
}

type Assistant struct {
	Id string `json:"id"`
}

type Thread struct {
	Id string `json:"id"`
}

type Run struct {
	Id        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error,omitempty"`
}

type ThreadMessage struct {
	Id        string `json:"id"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
	Content   []struct {
		Type string `json:"type"`
		Text *struct {
			Value string `json:"value"`
		} `json:"text,omitempty"`
	} `json:"content"`
}

// TextContent returns the first text block of the message, or "".
func (m *ThreadMessage) TextContent() string {
	for _, content := range m.Content {
		if content.Type == "text" && content.Text != nil {
			return content.Text.Value
		}
	}
	return ""
}

type messageList struct {
	Data []ThreadMessage `json:"data"`
}

// CreateAssistant provisions a new assistant bound to the configured model,
// instructions, and file-search vector store. Assistant creation is expensive
// and mostly static, so callers reuse the returned id across a session.
func (c *Client) CreateAssistant(ctx context.Context) (string, error) {
	body := map[string]any{
		"name":         c.cfg.AssistantName,
		"instructions": c.cfg.Instructions,
		"model":        c.cfg.Model,
		"tools":        []map[string]string{{"type": "file_search"}},
	}
	if c.cfg.VectorStoreId != "" {
		body["tool_resources"] = map[string]any{
			"file_search": map[string]any{"vector_store_ids": []string{c.cfg.VectorStoreId}},
		}
	}

	var assistant Assistant
	if err := c.post(ctx, "create assistant", "/assistants", body, &assistant); err != nil {
		return "", err
	}
	return assistant.Id, nil
}

func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var thread Thread
	if err := c.post(ctx, "create thread", "/threads", map[string]any{}, &thread); err != nil {
		return "", err
	}
	return thread.Id, nil
}

func (c *Client) AddMessage(ctx context.Context, threadId, content string) error {
	body := map[string]any{"role": "user", "content": content}
	return c.post(ctx, "add message", fmt.Sprintf("/threads/%s/messages", threadId), body, nil)
}

func (c *Client) CreateRun(ctx context.Context, threadId, assistantId string) (Run, error) {
	var run Run
	body := map[string]any{"assistant_id": assistantId}
	err := c.post(ctx, "create run", fmt.Sprintf("/threads/%s/runs", threadId), body, &run)
	return run, err
}

func (c *Client) GetRun(ctx context.Context, threadId, runId string) (Run, error) {
	var run Run
	err := c.get(ctx, "get run status", fmt.Sprintf("/threads/%s/runs/%s", threadId, runId), &run)
	return run, err
}

func (c *Client) ListMessages(ctx context.Context, threadId string) ([]ThreadMessage, error) {
	var list messageList
	if err := c.get(ctx, "list messages", fmt.Sprintf("/threads/%s/messages", threadId), &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (c *Client) post(ctx context.Context, operation, endpoint string, body, result any) error {
	req := c.client.R().SetContext(ctx).SetBody(body)
	if result != nil {
		req.SetResult(result)
	}
	res, err := req.Post(endpoint)
	return c.checkResponse(operation, res, err)
}

func (c *Client) get(ctx context.Context, operation, endpoint string, result any) error {
	res, err := c.client.R().SetContext(ctx).SetResult(result).Get(endpoint)
	return c.checkResponse(operation, res, err)
}

func (c *Client) checkResponse(operation string, res *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s request failed: %w", operation, err)
	}
	if !res.IsSuccess() {
		return &UpstreamError{Operation: operation, Status: res.StatusCode(), Body: res.String()}
	}
	return nil
}
