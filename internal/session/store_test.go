package session

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSessionBecomesCurrent(t *testing.T) {
	store := NewStore(nil)

	created := store.CreateSession("user-1")
	current, ok := store.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, created.Id, current.Id)
	assert.Equal(t, "user-1", current.Owner)
	assert.Empty(t, current.History)
	assert.False(t, current.Bound())
}

func TestCreateSessionDefaultsToAnonymous(t *testing.T) {
	store := NewStore(nil)
	created := store.CreateSession("")
	assert.Equal(t, AnonymousOwner, created.Owner)
}

func TestSetCurrentSessionUnknownId(t *testing.T) {
	store := NewStore(nil)
	store.CreateSession("user-1")

	err := store.SetCurrentSession("session-does-not-exist")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAddExchangePreservesSendOrder(t *testing.T) {
	store := NewStore(nil)
	store.CreateSession("user-1")

	for i := 0; i < 5; i++ {
		err := store.AddExchange(context.Background(), fmt.Sprintf("q%d", i), fmt.Sprintf("r%d", i), Metadata{})
		require.NoError(t, err)
	}

	current, ok := store.CurrentSession()
	require.True(t, ok)
	require.Len(t, current.History, 5)
	for i, exchange := range current.History {
		assert.Equal(t, fmt.Sprintf("q%d", i), exchange.Query)
		assert.Equal(t, fmt.Sprintf("r%d", i), exchange.Response)
	}
}

func TestAddExchangeTruncatesHistory(t *testing.T) {
	store := NewStore(nil, WithMaxHistory(3))
	store.CreateSession("user-1")

	for i := 0; i < 7; i++ {
		require.NoError(t, store.AddExchange(context.Background(), fmt.Sprintf("q%d", i), "r", Metadata{}))
	}

	current, _ := store.CurrentSession()
	require.Len(t, current.History, 3)
	assert.Equal(t, "q4", current.History[0].Query)
	assert.Equal(t, "q6", current.History[2].Query)
}

func TestDropLastExchange(t *testing.T) {
	store := NewStore(nil)
	store.CreateSession("user-1")

	require.NoError(t, store.AddExchange(context.Background(), "q0", "r0", Metadata{}))
	require.NoError(t, store.AddExchange(context.Background(), "q1", "r1", Metadata{}))

	last, ok := store.DropLastExchange()
	require.True(t, ok)
	assert.Equal(t, "q1", last.Query)

	current, _ := store.CurrentSession()
	require.Len(t, current.History, 1)
	assert.Equal(t, "q0", current.History[0].Query)

	store.DropLastExchange()
	_, ok = store.DropLastExchange()
	assert.False(t, ok)
}

func TestAddExchangeWithoutSession(t *testing.T) {
	store := NewStore(nil)
	err := store.AddExchange(context.Background(), "q", "r", Metadata{})
	assert.ErrorIs(t, err, ErrNoCurrentSession)
}

func TestUpdateBinding(t *testing.T) {
	store := NewStore(nil)
	store.CreateSession("user-1")

	require.NoError(t, store.UpdateBinding("asst_1", "thread_1"))
	current, _ := store.CurrentSession()
	assert.True(t, current.Bound())
	assert.Equal(t, "asst_1", current.AssistantId)
	assert.Equal(t, "thread_1", current.ThreadId)

	// Rebinding with the same values is idempotent.
	require.NoError(t, store.UpdateBinding("asst_1", "thread_1"))
	current, _ = store.CurrentSession()
	assert.Equal(t, "asst_1", current.AssistantId)
	assert.Equal(t, "thread_1", current.ThreadId)
}

func TestCleanupExpired(t *testing.T) {
	store := NewStore(nil)

	now := time.Now()
	store.now = func() time.Time { return now.Add(-8 * 24 * time.Hour) }
	stale := store.CreateSession("user-1")

	store.now = func() time.Time { return now.Add(-time.Hour) }
	fresh := store.CreateSession("user-1")

	store.now = func() time.Time { return now }
	removed := store.CleanupExpired()

	assert.Equal(t, 1, removed)
	_, err := store.GetSession(stale.Id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.GetSession(fresh.Id)
	assert.NoError(t, err)
}

func TestDeleteSessionClearsCurrent(t *testing.T) {
	store := NewStore(nil)
	created := store.CreateSession("user-1")

	require.NoError(t, store.DeleteSession(created.Id))
	_, ok := store.CurrentSession()
	assert.False(t, ok)
	assert.ErrorIs(t, store.DeleteSession(created.Id), ErrSessionNotFound)
}

func TestSessionsSortedByActivity(t *testing.T) {
	store := NewStore(nil)

	now := time.Now()
	store.now = func() time.Time { return now.Add(-time.Hour) }
	older := store.CreateSession("user-1")

	store.now = func() time.Time { return now }
	newer := store.CreateSession("user-1")

	sessions := store.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, newer.Id, sessions[0].Id)
	assert.Equal(t, older.Id, sessions[1].Id)
}

func TestContextWindowEmptyHistory(t *testing.T) {
	store := NewStore(nil)
	assert.Equal(t, "", store.ContextWindow())

	store.CreateSession("user-1")
	assert.Equal(t, "", store.ContextWindow())
	assert.Equal(t, "hello", store.ContextualMessage("hello"))
}

func TestContextWindowKeepsRecentExchangesOldestFirst(t *testing.T) {
	store := NewStore(nil)
	store.CreateSession("user-1")

	for i := 0; i < 5; i++ {
		require.NoError(t, store.AddExchange(context.Background(), fmt.Sprintf("q%d", i), fmt.Sprintf("r%d", i), Metadata{}))
	}

	window := store.ContextWindow()
	assert.NotContains(t, window, "q0")
	assert.NotContains(t, window, "q1")

	i2 := strings.Index(window, "User: q2")
	i3 := strings.Index(window, "User: q3")
	i4 := strings.Index(window, "User: q4")
	require.True(t, i2 >= 0 && i3 >= 0 && i4 >= 0)
	assert.Less(t, i2, i3)
	assert.Less(t, i3, i4)
}

func TestContextWindowTruncatesLongResponses(t *testing.T) {
	store := NewStore(nil)
	store.CreateSession("user-1")

	long := strings.Repeat("x", 2*contextResponseBudget)
	require.NoError(t, store.AddExchange(context.Background(), "q", long, Metadata{}))

	window := store.ContextWindow()
	assert.Contains(t, window, "...")
	assert.Less(t, len(window), len(long))
}

func TestContextualMessagePrefixesWindow(t *testing.T) {
	store := NewStore(nil)
	store.CreateSession("user-1")
	require.NoError(t, store.AddExchange(context.Background(), "hello", "hi there", Metadata{}))

	msg := store.ContextualMessage("follow-up")
	assert.Contains(t, msg, "Previous conversation context:")
	assert.Contains(t, msg, "User: hello")
	assert.Contains(t, msg, "Current query: follow-up")
}

type recordingMirror struct {
	calls []string
	err   error
}

func (m *recordingMirror) RecordExchange(ctx context.Context, owner, sessionId, title string, exchange Exchange) error {
	m.calls = append(m.calls, owner+"/"+exchange.Query)
	return m.err
}

func TestMirrorReceivesAuthenticatedExchanges(t *testing.T) {
	mirror := &recordingMirror{}
	store := NewStore(mirror)
	store.CreateSession("user-1")

	require.NoError(t, store.AddExchange(context.Background(), "q1", "r1", Metadata{}))
	require.Len(t, mirror.calls, 1)
	assert.Equal(t, "user-1/q1", mirror.calls[0])
}

func TestMirrorSkippedForGuests(t *testing.T) {
	mirror := &recordingMirror{}
	store := NewStore(mirror)
	store.CreateSession(AnonymousOwner)

	require.NoError(t, store.AddExchange(context.Background(), "q1", "r1", Metadata{}))
	assert.Empty(t, mirror.calls)
}

func TestMirrorFailureDoesNotFailUpdate(t *testing.T) {
	mirror := &recordingMirror{err: fmt.Errorf("durable store down")}
	store := NewStore(mirror)
	store.CreateSession("user-1")

	require.NoError(t, store.AddExchange(context.Background(), "q1", "r1", Metadata{}))
	current, _ := store.CurrentSession()
	assert.Len(t, current.History, 1)
}
