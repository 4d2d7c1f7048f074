package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AnonymousOwner marks guest sessions, which are never mirrored to the
// durable store.
const AnonymousOwner = "anonymous"

// Metadata carries the external identifiers recorded with an exchange. Only
// these three fields are ever read downstream, so this is a closed struct
// rather than an open map.
type Metadata struct {
	AssistantId string `json:"assistantId,omitempty"`
	ThreadId    string `json:"threadId,omitempty"`
	RunId       string `json:"runId,omitempty"`
}

// Exchange is one user query plus the assistant's response. Exchanges are
// append-only and never edited in place.
type Exchange struct {
	Query     string
	Response  string
	Timestamp time.Time
	Metadata  Metadata
}

// Session correlates a conversation to an assistant+thread pair on the
// external API plus a bounded local history mirror. AssistantId and ThreadId
// are empty until the first successful exchange binds them.
type Session struct {
	Id           string
	Owner        string
	AssistantId  string
	ThreadId     string
	History      []Exchange
	CreatedAt    time.Time
	LastActivity time.Time
}

// Bound reports whether the session has both external identifiers, i.e.
// whether subsequent requests should continue the server-side thread.
func (s *Session) Bound() bool {
	return s.AssistantId != "" && s.ThreadId != ""
}

func newSessionId(owner string, now time.Time) string {
	return fmt.Sprintf("session-%d-%s-%s", now.UnixMilli(), owner, uuid.NewString()[:8])
}
