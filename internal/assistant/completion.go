package assistant

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// CompletionSystemPrompt frames the direct chat-completion path, which skips
// the assistant/thread machinery entirely. Used when no knowledge-base
// assistant is needed for a request.
const CompletionSystemPrompt = `# Think Tank AI - Enterprise Intelligence Platform

You are Think Tank AI, an enterprise-grade assistant serving Think Tank
organization stakeholders, from analysts and project managers to executives
and consultants.

Transform enterprise data into actionable business intelligence. Deliver
comprehensive yet concise responses that connect business insights, prioritize
practical application, and maintain strict confidentiality. Adapt technical
depth to the user's role, and use an executive summary approach with detailed
backup when needed.`

type CompletionMessage struct {
	Role    string
	Content string
}

// Completer answers a message with a single chat completion against the
// configured model, replaying the caller-supplied history inline.
type Completer struct {
	llm   *openai.LLM
	model string
}

func NewCompleter(apiKey, model string) (*Completer, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("could not create completion client: %w", err)
	}
	return &Completer{llm: llm, model: model}, nil
}

func (c *Completer) Model() string {
	return c.model
}

func (c *Completer) Complete(ctx context.Context, history []CompletionMessage, message string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, CompletionSystemPrompt),
	}
	for _, item := range history {
		role := llms.ChatMessageTypeHuman
		if item.Role == "assistant" {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, item.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, message))

	resp, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}
