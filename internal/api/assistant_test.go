package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"thinktank-backend/internal/api"
	"thinktank-backend/internal/assistant"
	"thinktank-backend/internal/references"
	"thinktank-backend/internal/session"
	pkgapi "thinktank-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream serves just enough of the assistants surface for the service
// to complete a turn: every run completes immediately and the newest
// assistant message is a canned reply.
type fakeUpstream struct {
	reply    string
	failAll  atomic.Bool
	requests atomic.Int64
}

func (f *fakeUpstream) server(t *testing.T) *httptest.Server {
	r := chi.NewRouter()

	fail := func(w http.ResponseWriter) bool {
		if f.failAll.Load() {
			http.Error(w, `{"error": "backend unavailable"}`, http.StatusBadGateway)
			return true
		}
		return false
	}

	r.Post("/assistants", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if fail(w) {
			return
		}
		api.WriteJsonResponse(w, map[string]string{"id": "asst_test"})
	})
	r.Post("/threads", func(w http.ResponseWriter, r *http.Request) {
		if fail(w) {
			return
		}
		api.WriteJsonResponse(w, map[string]string{"id": "thread_test"})
	})
	r.Post("/threads/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		if fail(w) {
			return
		}
		api.WriteJsonResponse(w, map[string]string{"id": "msg_user"})
	})
	r.Post("/threads/{id}/runs", func(w http.ResponseWriter, r *http.Request) {
		if fail(w) {
			return
		}
		api.WriteJsonResponse(w, map[string]string{"id": "run_test", "status": "completed"})
	})
	r.Get("/threads/{id}/runs/{runId}", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJsonResponse(w, map[string]string{"id": "run_test", "status": "completed"})
	})
	r.Get("/threads/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJsonResponse(w, map[string]any{
			"data": []map[string]any{
				{
					"id": "msg_reply", "role": "assistant", "created_at": time.Now().Unix(),
					"content": []map[string]any{
						{"type": "text", "text": map[string]string{"value": f.reply}},
					},
				},
			},
		})
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, history []assistant.CompletionMessage, message string) (string, error) {
	return f.reply, f.err
}

func (f *fakeCompleter) Model() string { return "test-model" }

func setupAssistantRouter(t *testing.T, upstream *fakeUpstream, completer api.Completer) (chi.Router, *session.Store) {
	server := upstream.server(t)

	client, err := assistant.NewClient(assistant.ClientConfig{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		APIVersion: "2024-05-01-preview",
		Model:      "gpt-4o",
	})
	require.NoError(t, err)

	store := session.NewStore(nil)
	gateway := assistant.NewGateway(client, assistant.WithPollInterval(time.Millisecond))

	router := chi.NewRouter()
	api.NewAssistantService(store, gateway, completer, references.NewResolver()).AddRoutes(router)
	return router, store
}

func postJSON(t *testing.T, router chi.Router, path, userId string, body any) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if userId != "" {
		req.Header.Set("user-id", userId)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, router chi.Router, path, userId string, out any) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userId != "" {
		req.Header.Set("user-id", userId)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestChatTurnBindsSessionAndResolvesReferences(t *testing.T) {
	upstream := &fakeUpstream{reply: "Follow the runbook [2:4 source] before escalating."}
	router, store := setupAssistantRouter(t, upstream, nil)

	rec := postJSON(t, router, "/assistant/chat", "alice", pkgapi.ChatTurnRequest{Message: "incident process?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res pkgapi.ChatTurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	assert.False(t, res.Fallback)
	assert.Equal(t, "Follow the runbook [Incident Response Procedures] before escalating.", res.Reply)
	assert.Equal(t, "asst_test", res.AssistantId)
	assert.Equal(t, "thread_test", res.ThreadId)
	require.Len(t, res.References, 1)
	assert.Equal(t, "kb-002", res.References[0].Id)

	current, ok := store.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, "alice", current.Owner)
	assert.True(t, current.Bound())
	require.Len(t, current.History, 1)
	assert.Equal(t, "incident process?", current.History[0].Query)
}

func TestChatTurnReusesBinding(t *testing.T) {
	upstream := &fakeUpstream{reply: "answer"}
	router, _ := setupAssistantRouter(t, upstream, nil)

	rec := postJSON(t, router, "/assistant/chat", "alice", pkgapi.ChatTurnRequest{Message: "first"})
	require.Equal(t, http.StatusOK, rec.Code)
	created := upstream.requests.Load()
	assert.Equal(t, int64(1), created)

	rec = postJSON(t, router, "/assistant/chat", "alice", pkgapi.ChatTurnRequest{Message: "second"})
	require.Equal(t, http.StatusOK, rec.Code)

	// No second assistant creation once the session is bound.
	assert.Equal(t, created, upstream.requests.Load())

	var res pkgapi.ChatTurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.SessionContinued)
}

func TestChatTurnFallsBackOnUpstreamFailure(t *testing.T) {
	upstream := &fakeUpstream{}
	upstream.failAll.Store(true)
	router, store := setupAssistantRouter(t, upstream, nil)

	rec := postJSON(t, router, "/assistant/chat", "alice", pkgapi.ChatTurnRequest{Message: "hello"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res pkgapi.ChatTurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	assert.True(t, res.Fallback)
	assert.Contains(t, res.Reply, "trouble connecting")

	// The failed turn stays in the transcript with its fallback reply.
	current, ok := store.CurrentSession()
	require.True(t, ok)
	require.Len(t, current.History, 1)
	assert.Equal(t, "hello", current.History[0].Query)
	assert.Equal(t, res.Reply, current.History[0].Response)
}

func TestChatTurnRequiresMessage(t *testing.T) {
	router, _ := setupAssistantRouter(t, &fakeUpstream{reply: "x"}, nil)

	rec := postJSON(t, router, "/assistant/chat", "alice", pkgapi.ChatTurnRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRawMessagesEndpoint(t *testing.T) {
	upstream := &fakeUpstream{reply: "raw reply"}
	router, _ := setupAssistantRouter(t, upstream, nil)

	rec := postJSON(t, router, "/assistant/messages", "alice", pkgapi.AssistantMessageRequest{Message: "hello"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res pkgapi.AssistantMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "raw reply", res.Response)
	assert.Equal(t, "asst_test", res.AssistantId)
	assert.Equal(t, "thread_test", res.ThreadId)
	assert.Equal(t, "run_test", res.RunId)
	assert.False(t, res.SessionContinued)
	assert.NotEmpty(t, res.Timestamp)
}

func TestRawMessagesEndpointErrorShape(t *testing.T) {
	upstream := &fakeUpstream{}
	upstream.failAll.Store(true)
	router, _ := setupAssistantRouter(t, upstream, nil)

	rec := postJSON(t, router, "/assistant/messages", "alice", pkgapi.AssistantMessageRequest{Message: "hello"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var res pkgapi.AssistantErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Internal server error", res.Error)
	assert.NotEmpty(t, res.Details)
}

func TestRetryResendsLastQuery(t *testing.T) {
	upstream := &fakeUpstream{reply: "answer"}
	router, store := setupAssistantRouter(t, upstream, nil)

	rec := postJSON(t, router, "/assistant/chat", "alice", pkgapi.ChatTurnRequest{Message: "original question"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, router, "/assistant/retry", "alice", struct{}{})
	require.Equal(t, http.StatusOK, rec.Code)

	// The retried turn replaces the previous exchange instead of stacking a
	// duplicate on top of it.
	current, ok := store.CurrentSession()
	require.True(t, ok)
	require.Len(t, current.History, 1)
	assert.Equal(t, "original question", current.History[0].Query)
}

func TestRetryAfterFailedTurn(t *testing.T) {
	upstream := &fakeUpstream{reply: "recovered answer"}
	upstream.failAll.Store(true)
	router, store := setupAssistantRouter(t, upstream, nil)

	rec := postJSON(t, router, "/assistant/chat", "alice", pkgapi.ChatTurnRequest{Message: "Hello"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res pkgapi.ChatTurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Fallback)

	upstream.failAll.Store(false)

	rec = postJSON(t, router, "/assistant/retry", "alice", struct{}{})
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Fallback)
	assert.Equal(t, "recovered answer", res.Reply)

	// The original query was resubmitted and its failed exchange replaced.
	current, ok := store.CurrentSession()
	require.True(t, ok)
	require.Len(t, current.History, 1)
	assert.Equal(t, "Hello", current.History[0].Query)
	assert.Equal(t, "recovered answer", current.History[0].Response)
}

func TestRetryWithoutSession(t *testing.T) {
	router, _ := setupAssistantRouter(t, &fakeUpstream{reply: "x"}, nil)

	rec := postJSON(t, router, "/assistant/retry", "alice", struct{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompletionsEndpoint(t *testing.T) {
	router, _ := setupAssistantRouter(t, &fakeUpstream{reply: "x"}, &fakeCompleter{reply: "direct reply"})

	rec := postJSON(t, router, "/assistant/completions", "alice", pkgapi.CompletionRequest{
		Message: "hello",
		History: []pkgapi.CompletionMessage{{Role: "user", Content: "earlier"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res pkgapi.CompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "direct reply", res.Reply)
	assert.Equal(t, "test-model", res.Model)
}

func TestCompletionsErrors(t *testing.T) {
	router, _ := setupAssistantRouter(t, &fakeUpstream{reply: "x"}, &fakeCompleter{err: fmt.Errorf("llm down")})

	rec := postJSON(t, router, "/assistant/completions", "alice", pkgapi.CompletionRequest{Message: "hello"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	noCompleter := chi.NewRouter()
	api.NewAssistantService(session.NewStore(nil), nil, nil, nil).AddRoutes(noCompleter)

	rec = postJSON(t, noCompleter, "/assistant/completions", "alice", pkgapi.CompletionRequest{Message: "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSessionEndpoints(t *testing.T) {
	router, store := setupAssistantRouter(t, &fakeUpstream{reply: "x"}, nil)

	rec := postJSON(t, router, "/assistant/sessions", "alice", struct{}{})
	require.Equal(t, http.StatusOK, rec.Code)

	var created pkgapi.CreateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.SessionId)

	second := store.CreateSession("alice")

	var sessions pkgapi.GetSessionsResponse
	rec = getJSON(t, router, "/assistant/sessions/", "alice", &sessions)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sessions.Sessions, 2)

	rec = postJSON(t, router, "/assistant/sessions/current", "alice", pkgapi.SetCurrentSessionRequest{SessionId: created.SessionId})
	require.Equal(t, http.StatusOK, rec.Code)

	current, ok := store.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, created.SessionId, current.Id)

	rec = postJSON(t, router, "/assistant/sessions/current", "alice", pkgapi.SetCurrentSessionRequest{SessionId: "session-unknown"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var sess pkgapi.GetSessionResponse
	rec = getJSON(t, router, "/assistant/sessions/"+second.Id, "alice", &sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", sess.Session.Owner)
	assert.False(t, sess.Session.Current)

	req := httptest.NewRequest(http.MethodDelete, "/assistant/sessions/"+second.Id, nil)
	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, req)
	require.Equal(t, http.StatusOK, delRec.Code)

	rec = getJSON(t, router, "/assistant/sessions/"+second.Id, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSessionsScopedToOwner(t *testing.T) {
	router, store := setupAssistantRouter(t, &fakeUpstream{reply: "x"}, nil)

	store.CreateSession("alice")
	store.CreateSession("bob")

	var sessions pkgapi.GetSessionsResponse
	rec := getJSON(t, router, "/assistant/sessions/", "alice", &sessions)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sessions.Sessions, 1)
	assert.Equal(t, "alice", sessions.Sessions[0].Owner)
}

func TestContextWindowEndpoint(t *testing.T) {
	router, store := setupAssistantRouter(t, &fakeUpstream{reply: "x"}, nil)

	store.CreateSession("alice")
	require.NoError(t, store.AddExchange(context.Background(), "q1", "a1", session.Metadata{}))

	var res pkgapi.ContextWindowResponse
	rec := getJSON(t, router, "/assistant/sessions/context", "alice", &res)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, res.Context, "User: q1")
	assert.Contains(t, res.Context, "Assistant: a1")
}
