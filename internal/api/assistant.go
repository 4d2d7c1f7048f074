package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"thinktank-backend/internal/assistant"
	"thinktank-backend/internal/references"
	"thinktank-backend/internal/session"
	"thinktank-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

// Sender is the gateway surface the service needs. The production
// implementation is assistant.Gateway.
type Sender interface {
	Send(ctx context.Context, req assistant.Request) (assistant.Response, error)
}

// Completer is the direct chat-completion surface, used when the caller asks
// for a plain model reply instead of the knowledge assistant.
type Completer interface {
	Complete(ctx context.Context, history []assistant.CompletionMessage, message string) (string, error)
	Model() string
}

// User-facing replies for upstream failures. The orchestrating endpoint
// degrades to these instead of surfacing transport errors to the chat UI.
const (
	replyNotConfigured = "The assistant service is not configured. Please contact your administrator."
	replyUpstreamDown  = "I'm having trouble connecting to the knowledge service right now. Please try again."
	replyGenericError  = "Sorry, I encountered an error while processing your message. Please try again."
)

type AssistantService struct {
	store     *session.Store
	gateway   Sender
	completer Completer
	resolver  *references.Resolver
}

func NewAssistantService(store *session.Store, gateway Sender, completer Completer, resolver *references.Resolver) *AssistantService {
	return &AssistantService{
		store:     store,
		gateway:   gateway,
		completer: completer,
		resolver:  resolver,
	}
}

func (s *AssistantService) AddRoutes(r chi.Router) {
	r.Route("/assistant", func(r chi.Router) {
		r.Post("/messages", s.SendMessage)
		r.Post("/chat", RestHandler(s.ChatTurn))
		r.Post("/retry", RestHandler(s.Retry))
		r.Post("/completions", RestHandler(s.Complete))

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", RestHandler(s.GetSessions))
			r.Post("/", RestHandler(s.CreateSession))
			r.Post("/current", RestHandler(s.SetCurrentSession))
			r.Delete("/current", RestHandler(s.ClearCurrentSession))
			r.Get("/context", RestHandler(s.GetContextWindow))
			r.Get("/{session_id}", RestHandler(s.GetSession))
			r.Delete("/{session_id}", RestHandler(s.DeleteSession))
		})
	})
}

// SendMessage is the raw gateway endpoint. Unlike the chat endpoint it
// surfaces failures as a 500 with an error payload, and honors explicit
// assistant/thread ids from the request body.
func (s *AssistantService) SendMessage(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest[api.AssistantMessageRequest](r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	userId := UserId(r)

	gatewayReq := assistant.Request{
		Message: req.Message,
		FileIds: req.FileIds,
	}
	if req.ContinueSession {
		gatewayReq.Continue = true
		gatewayReq.AssistantId = req.AssistantId
		gatewayReq.ThreadId = req.ThreadId

		if gatewayReq.AssistantId == "" || gatewayReq.ThreadId == "" {
			if current, ok := s.store.CurrentSession(); ok && current.Owner == userId && current.Bound() {
				gatewayReq.AssistantId = current.AssistantId
				gatewayReq.ThreadId = current.ThreadId
			}
		}
	}

	if s.gateway == nil {
		s.writeGatewayError(w, assistant.ErrNotConfigured)
		return
	}

	res, err := s.gateway.Send(r.Context(), gatewayReq)
	if err != nil {
		slog.Error("assistant message failed", "user_id", userId, "error", err)
		s.writeGatewayError(w, err)
		return
	}

	s.recordExchange(r.Context(), userId, req.Message, res)

	WriteJsonResponse(w, api.AssistantMessageResponse{
		Response:         res.Response,
		AssistantId:      res.AssistantId,
		ThreadId:         res.ThreadId,
		RunId:            res.RunId,
		Timestamp:        res.Timestamp.UTC().Format(time.RFC3339),
		SessionContinued: res.SessionContinued,
	})
}

func (s *AssistantService) writeGatewayError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	if encodeErr := json.NewEncoder(w).Encode(api.AssistantErrorResponse{
		Error:   "Internal server error",
		Details: err.Error(),
	}); encodeErr != nil {
		slog.Error("error serializing error response", "error", encodeErr)
	}
}

// ChatTurn is the session-aware chat endpoint. Upstream failures degrade to
// a canned reply with fallback set rather than an error status, so the chat
// surface always renders something.
func (s *AssistantService) ChatTurn(r *http.Request) (any, error) {
	req, err := ParseRequest[api.ChatTurnRequest](r)
	if err != nil {
		return nil, err
	}
	if req.Message == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "message is required")
	}

	return s.chatTurn(r.Context(), UserId(r), req.Message), nil
}

// Retry discards the trailing exchange of the caller's current session and
// re-submits its query. Failed turns are recorded with their fallback reply,
// so the query that failed is the one resubmitted.
func (s *AssistantService) Retry(r *http.Request) (any, error) {
	current, ok := s.store.CurrentSession()
	if !ok || current.Owner != UserId(r) {
		return nil, CodedErrorf(http.StatusBadRequest, "no active session to retry")
	}

	last, ok := s.store.DropLastExchange()
	if !ok {
		return nil, CodedErrorf(http.StatusBadRequest, "no previous message to retry")
	}
	return s.chatTurn(r.Context(), current.Owner, last.Query), nil
}

func (s *AssistantService) chatTurn(ctx context.Context, userId, message string) api.ChatTurnResponse {
	sess := s.resolveSession(userId)

	outbound := message
	if len(sess.History) > 0 {
		outbound = s.store.ContextualMessage(message)
	}

	if s.gateway == nil {
		return s.failedTurn(ctx, message, sess.Id, assistant.ErrNotConfigured)
	}

	res, err := s.gateway.Send(ctx, assistant.Request{
		Message:     outbound,
		AssistantId: sess.AssistantId,
		ThreadId:    sess.ThreadId,
		Continue:    sess.Bound(),
	})
	if err != nil {
		slog.Error("chat turn failed", "user_id", userId, "session_id", sess.Id, "error", err)
		return s.failedTurn(ctx, message, sess.Id, err)
	}

	s.recordExchange(ctx, userId, message, res)

	reply := res.Response
	var refs []api.DocumentReference
	if s.resolver != nil {
		processed := s.resolver.Process(res.Response)
		reply = processed.EnhancedResponse
		refs = make([]api.DocumentReference, 0, len(processed.References))
		for _, ref := range processed.References {
			refs = append(refs, api.DocumentReference{
				Id:         ref.Id,
				Title:      ref.Title,
				Url:        ref.Url,
				Snippet:    ref.Snippet,
				Source:     ref.Source,
				Confidence: ref.Confidence,
			})
		}
	}

	return api.ChatTurnResponse{
		Reply:            reply,
		SessionId:        sess.Id,
		AssistantId:      res.AssistantId,
		ThreadId:         res.ThreadId,
		RunId:            res.RunId,
		Timestamp:        res.Timestamp.UTC().Format(time.RFC3339),
		SessionContinued: res.SessionContinued,
		References:       refs,
	}
}

// resolveSession returns the caller's current session, creating one when
// there is none or the current session belongs to a different user.
func (s *AssistantService) resolveSession(userId string) session.Session {
	if current, ok := s.store.CurrentSession(); ok && current.Owner == userId {
		return current
	}
	return s.store.CreateSession(userId)
}

func (s *AssistantService) recordExchange(ctx context.Context, userId, message string, res assistant.Response) {
	if current, ok := s.store.CurrentSession(); !ok || current.Owner != userId {
		s.store.CreateSession(userId)
	}

	if err := s.store.UpdateBinding(res.AssistantId, res.ThreadId); err != nil {
		slog.Error("error updating session binding", "error", err)
	}
	if err := s.store.AddExchange(ctx, message, res.Response, session.Metadata{
		AssistantId: res.AssistantId,
		ThreadId:    res.ThreadId,
		RunId:       res.RunId,
	}); err != nil {
		slog.Error("error recording exchange", "error", err)
	}
}

// failedTurn degrades to a canned reply but still records the exchange, so
// the transcript shows the failure and retry resubmits the same query.
func (s *AssistantService) failedTurn(ctx context.Context, message, sessionId string, cause error) api.ChatTurnResponse {
	res := fallbackResponse(sessionId, cause)
	if err := s.store.AddExchange(ctx, message, res.Reply, session.Metadata{}); err != nil {
		slog.Error("error recording failed exchange", "session_id", sessionId, "error", err)
	}
	return res
}

func fallbackResponse(sessionId string, err error) api.ChatTurnResponse {
	var upstream *assistant.UpstreamError
	var runFailed *assistant.RunFailedError

	reply := replyGenericError
	switch {
	case errors.Is(err, assistant.ErrNotConfigured):
		reply = replyNotConfigured
	case errors.Is(err, assistant.ErrRunTimeout), errors.As(err, &upstream), errors.As(err, &runFailed):
		reply = replyUpstreamDown
	}

	return api.ChatTurnResponse{
		Reply:     reply,
		SessionId: sessionId,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Fallback:  true,
	}
}

func (s *AssistantService) Complete(r *http.Request) (any, error) {
	if s.completer == nil {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "chat completion model is not configured")
	}

	req, err := ParseRequest[api.CompletionRequest](r)
	if err != nil {
		return nil, err
	}
	if req.Message == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "message is required")
	}

	history := make([]assistant.CompletionMessage, 0, len(req.History))
	for _, msg := range req.History {
		history = append(history, assistant.CompletionMessage{Role: msg.Role, Content: msg.Content})
	}

	reply, err := s.completer.Complete(r.Context(), history, req.Message)
	if err != nil {
		slog.Error("chat completion failed", "error", err)
		return nil, CodedErrorf(http.StatusBadGateway, "chat completion failed")
	}

	return api.CompletionResponse{Reply: reply, Model: s.completer.Model()}, nil
}

func (s *AssistantService) GetSessions(r *http.Request) (any, error) {
	userId := UserId(r)
	current, _ := s.store.CurrentSession()

	sessions := s.store.Sessions()
	out := make([]api.SessionMetadata, 0, len(sessions))
	for _, sess := range sessions {
		if sess.Owner != userId {
			continue
		}
		out = append(out, sessionMetadata(sess, sess.Id == current.Id))
	}

	return api.GetSessionsResponse{Sessions: out}, nil
}

func (s *AssistantService) CreateSession(r *http.Request) (any, error) {
	sess := s.store.CreateSession(UserId(r))
	return api.CreateSessionResponse{SessionId: sess.Id}, nil
}

func (s *AssistantService) SetCurrentSession(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SetCurrentSessionRequest](r)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetCurrentSession(req.SessionId); err != nil {
		return nil, CodedErrorf(http.StatusNotFound, "session %s not found", req.SessionId)
	}
	return nil, nil
}

func (s *AssistantService) ClearCurrentSession(r *http.Request) (any, error) {
	s.store.ClearCurrentSession()
	return nil, nil
}

func (s *AssistantService) GetContextWindow(r *http.Request) (any, error) {
	return api.ContextWindowResponse{Context: s.store.ContextWindow()}, nil
}

func (s *AssistantService) GetSession(r *http.Request) (any, error) {
	sessionId := chi.URLParam(r, "session_id")

	sess, err := s.store.GetSession(sessionId)
	if err != nil {
		return nil, CodedErrorf(http.StatusNotFound, "session %s not found", sessionId)
	}

	current, _ := s.store.CurrentSession()

	history := make([]api.ExchangeItem, 0, len(sess.History))
	for _, exchange := range sess.History {
		history = append(history, api.ExchangeItem{
			Query:       exchange.Query,
			Response:    exchange.Response,
			Timestamp:   exchange.Timestamp.UTC().Format(time.RFC3339),
			AssistantId: exchange.Metadata.AssistantId,
			ThreadId:    exchange.Metadata.ThreadId,
			RunId:       exchange.Metadata.RunId,
		})
	}

	return api.GetSessionResponse{
		Session: sessionMetadata(sess, sess.Id == current.Id),
		History: history,
	}, nil
}

func (s *AssistantService) DeleteSession(r *http.Request) (any, error) {
	sessionId := chi.URLParam(r, "session_id")

	if err := s.store.DeleteSession(sessionId); err != nil {
		return nil, CodedErrorf(http.StatusNotFound, "session %s not found", sessionId)
	}
	return nil, nil
}

func sessionMetadata(sess session.Session, current bool) api.SessionMetadata {
	return api.SessionMetadata{
		Id:           sess.Id,
		Owner:        sess.Owner,
		AssistantId:  sess.AssistantId,
		ThreadId:     sess.ThreadId,
		Exchanges:    len(sess.History),
		CreatedAt:    sess.CreatedAt.UTC().Format(time.RFC3339),
		LastActivity: sess.LastActivity.UTC().Format(time.RFC3339),
		Current:      current,
	}
}
