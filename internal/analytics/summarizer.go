package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"thinktank-backend/pkg/api"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const summarizerSystemPrompt = `You are an IT operations analyst. Given chart data from a service desk ` +
	`analytics dashboard, write 2-4 short insights about the trends it shows. ` +
	`Return one insight per line with no numbering or bullets.`

// OpenAISummarizer generates dashboard insights with a chat completion model.
type OpenAISummarizer struct {
	client openai.Client
	model  string
}

var _ Summarizer = (*OpenAISummarizer)(nil)

func NewOpenAISummarizer(apiKey, model string) *OpenAISummarizer {
	return &OpenAISummarizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, title string, points []api.AnalyticsPoint) ([]string, error) {
	data, err := json.Marshal(points)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dashboard data: %w", err)
	}

	prompt := fmt.Sprintf("Dashboard: %s\nData: %s", title, data)

	res, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summarizerSystemPrompt),
			openai.UserMessage(prompt),
		},
		Model:       s.model,
		Temperature: openai.Float(0.4),
	})
	if err != nil {
		slog.Error("openai error: chat completions failed", "error", err)
		return nil, fmt.Errorf("openai generation failed: %w", err)
	}

	if len(res.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	var insights []string
	for _, line := range strings.Split(res.Choices[0].Message.Content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*• "))
		if line != "" {
			insights = append(insights, line)
		}
	}
	return insights, nil
}
