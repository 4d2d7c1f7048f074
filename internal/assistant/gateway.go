package assistant

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

const (
	defaultPollInterval    = 2 * time.Second
	defaultMaxPollAttempts = 30
)

// Request is one chat request bridged to the external assistant API.
// AssistantId and ThreadId are reused only when Continue is set; otherwise
// fresh resources are created.
type Request struct {
	Message     string
	AssistantId string
	ThreadId    string
	Continue    bool
	FileIds     []string
}

type Response struct {
	Response         string
	AssistantId      string
	ThreadId         string
	RunId            string
	Timestamp        time.Time
	SessionContinued bool
}

// Gateway bridges a single chat request to the stateful external assistant
// API: resolve assistant and thread, append the message, start a run, poll to
// a terminal state, and extract the newest assistant message. It never
// retries internally; retry is a caller decision.
type Gateway struct {
	client          *Client
	pollInterval    time.Duration
	maxPollAttempts int
}

type GatewayOption func(*Gateway)

func WithPollInterval(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.pollInterval = d }
}

func WithMaxPollAttempts(n int) GatewayOption {
	return func(g *Gateway) { g.maxPollAttempts = n }
}

func NewGateway(client *Client, opts ...GatewayOption) *Gateway {
	gateway := &Gateway{
		client:          client,
		pollInterval:    defaultPollInterval,
		maxPollAttempts: defaultMaxPollAttempts,
	}
	for _, opt := range opts {
		opt(gateway)
	}
	return gateway
}

// Send executes the full request lifecycle. A crash mid-poll leaves an
// orphaned thread/run on the external system; threads are cheap and
// idempotent to abandon, so there is no compensating cleanup.
func (g *Gateway) Send(ctx context.Context, req Request) (Response, error) {
	assistantId := req.AssistantId
	if !req.Continue || assistantId == "" {
		var err error
		assistantId, err = g.client.CreateAssistant(ctx)
		if err != nil {
			return Response{}, err
		}
		slog.Info("created assistant", "assistant_id", assistantId)
	} else {
		slog.Info("reusing assistant", "assistant_id", assistantId)
	}

	threadId := req.ThreadId
	if !req.Continue || threadId == "" {
		var err error
		threadId, err = g.client.CreateThread(ctx)
		if err != nil {
			return Response{}, err
		}
		slog.Info("created thread", "thread_id", threadId)
	} else {
		slog.Info("continuing thread", "thread_id", threadId)
	}

	if err := g.client.AddMessage(ctx, threadId, req.Message); err != nil {
		return Response{}, err
	}

	run, err := g.client.CreateRun(ctx, threadId, assistantId)
	if err != nil {
		return Response{}, err
	}

	if err := g.awaitRun(ctx, threadId, &run); err != nil {
		return Response{}, err
	}

	text, err := g.latestAssistantMessage(ctx, threadId)
	if err != nil {
		return Response{}, err
	}

	return Response{
		Response:         text,
		AssistantId:      assistantId,
		ThreadId:         threadId,
		RunId:            run.Id,
		Timestamp:        time.Now().UTC(),
		SessionContinued: req.Continue,
	}, nil
}

// awaitRun polls the run on a fixed interval until it reaches a terminal
// state, the attempt ceiling is hit, or ctx is cancelled. Cancellation is
// honored at every iteration.
func (g *Gateway) awaitRun(ctx context.Context, threadId string, run *Run) error {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for attempts := 0; ; attempts++ {
		switch run.Status {
		case RunCompleted:
			return nil
		case RunQueued, RunInProgress:
			if attempts >= g.maxPollAttempts {
				slog.Warn("assistant run exceeded poll ceiling", "run_id", run.Id, "status", run.Status, "attempts", attempts)
				return ErrRunTimeout
			}
		default:
			slog.Error("assistant run reached terminal failure", "run_id", run.Id, "status", run.Status)
			return &RunFailedError{Status: run.Status}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		updated, err := g.client.GetRun(ctx, threadId, run.Id)
		if err != nil {
			return err
		}
		*run = updated
	}
}

func (g *Gateway) latestAssistantMessage(ctx context.Context, threadId string) (string, error) {
	messages, err := g.client.ListMessages(ctx, threadId)
	if err != nil {
		return "", err
	}

	assistantMessages := messages[:0:0]
	for _, message := range messages {
		if message.Role == "assistant" {
			assistantMessages = append(assistantMessages, message)
		}
	}
	if len(assistantMessages) == 0 {
		return "", ErrEmptyResponse
	}

	sort.SliceStable(assistantMessages, func(i, j int) bool {
		return assistantMessages[i].CreatedAt > assistantMessages[j].CreatedAt
	})

	text := assistantMessages[0].TextContent()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
