package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"
)

const (
	DefaultMaxHistory = 100
	DefaultExpiry     = 7 * 24 * time.Hour
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoCurrentSession = errors.New("no current session")
)

// Mirror receives best-effort copies of exchanges for authenticated owners.
// Implementations must tolerate being called once per exchange; errors are
// logged by the store and never propagated.
type Mirror interface {
	RecordExchange(ctx context.Context, owner, sessionId, title string, exchange Exchange) error
}

// Store tracks sessions keyed by identifier plus a "current" pointer. It is
// an explicitly constructed repository passed down to its consumers; there is
// no package-level singleton.
type Store struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	currentId  string
	mirror     Mirror
	maxHistory int
	expiry     time.Duration
	now        func() time.Time
}

type Option func(*Store)

func WithMaxHistory(n int) Option {
	return func(s *Store) { s.maxHistory = n }
}

func WithExpiry(d time.Duration) Option {
	return func(s *Store) { s.expiry = d }
}

func NewStore(mirror Mirror, opts ...Option) *Store {
	store := &Store{
		sessions:   make(map[string]*Session),
		mirror:     mirror,
		maxHistory: DefaultMaxHistory,
		expiry:     DefaultExpiry,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// CreateSession allocates a fresh session for the owner and makes it current.
// Any previous binding is abandoned with the previous session; bindings are
// never reset in place.
func (s *Store) CreateSession(owner string) Session {
	if owner == "" {
		owner = AnonymousOwner
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session := &Session{
		Id:           newSessionId(owner, now),
		Owner:        owner,
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[session.Id] = session
	s.currentId = session.Id
	return *session
}

func (s *Store) CurrentSession() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[s.currentId]
	if !ok {
		return Session{}, false
	}
	return snapshot(session), true
}

// SetCurrentSession makes the given session current. Unlike the silent no-op
// this design descends from, an unknown id is surfaced as ErrSessionNotFound
// so call sites can decide how to handle it.
func (s *Store) SetCurrentSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	s.currentId = id
	return nil
}

func (s *Store) GetSession(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return snapshot(session), nil
}

// Sessions returns all sessions ordered by most recent activity first.
func (s *Store) Sessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, snapshot(session))
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})
	return sessions
}

// AddExchange appends to the current session's history, truncating to the
// most recent maxHistory entries, and mirrors the exchange for authenticated
// owners. Mirror failures are logged and never block the in-memory update.
func (s *Store) AddExchange(ctx context.Context, query, response string, metadata Metadata) error {
	s.mu.Lock()

	session, ok := s.sessions[s.currentId]
	if !ok {
		s.mu.Unlock()
		return ErrNoCurrentSession
	}

	exchange := Exchange{
		Query:     query,
		Response:  response,
		Timestamp: s.now(),
		Metadata:  metadata,
	}
	session.History = append(session.History, exchange)
	if len(session.History) > s.maxHistory {
		session.History = session.History[len(session.History)-s.maxHistory:]
	}
	session.LastActivity = exchange.Timestamp

	owner, sessionId := session.Owner, session.Id
	title := chatTitle(session)
	s.mu.Unlock()

	if s.mirror != nil && owner != AnonymousOwner {
		if err := s.mirror.RecordExchange(ctx, owner, sessionId, title, exchange); err != nil {
			slog.Error("failed to mirror exchange to durable store", "session_id", sessionId, "error", err)
		}
	}
	return nil
}

// DropLastExchange removes and returns the newest exchange of the current
// session. Retry uses this to resubmit the query that was answered last,
// whether that answer succeeded or degraded to a fallback.
func (s *Store) DropLastExchange() (Exchange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[s.currentId]
	if !ok || len(session.History) == 0 {
		return Exchange{}, false
	}

	last := session.History[len(session.History)-1]
	session.History = session.History[:len(session.History)-1]
	session.LastActivity = s.now()
	return last, true
}

// UpdateBinding sets or overwrites the current session's external
// identifiers. Rebinding with the same values is idempotent.
func (s *Store) UpdateBinding(assistantId, threadId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[s.currentId]
	if !ok {
		return ErrNoCurrentSession
	}
	session.AssistantId = assistantId
	session.ThreadId = threadId
	session.LastActivity = s.now()
	return nil
}

func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	if s.currentId == id {
		s.currentId = ""
	}
	return nil
}

func (s *Store) ClearCurrentSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentId != "" {
		delete(s.sessions, s.currentId)
		s.currentId = ""
	}
}

// CleanupExpired removes sessions idle longer than the expiry threshold and
// returns the number removed. Intended to be driven by StartSweeper, not
// called on every operation.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.expiry)
	removed := 0
	for id, session := range s.sessions {
		if session.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			if s.currentId == id {
				s.currentId = ""
			}
			removed++
		}
	}
	return removed
}

// StartSweeper runs the expiry sweep on a ticker until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.CleanupExpired(); n > 0 {
					slog.Info("expired sessions removed", "count", n)
				}
			}
		}
	}()
}

func snapshot(session *Session) Session {
	copied := *session
	copied.History = make([]Exchange, len(session.History))
	copy(copied.History, session.History)
	return copied
}

// chatTitle derives the durable chat title from the first query, clamped the
// same way the persisted store clamps it.
func chatTitle(session *Session) string {
	if len(session.History) == 0 {
		return "New conversation"
	}
	title := session.History[0].Query
	if len(title) > 100 {
		title = title[:100]
	}
	return title
}
