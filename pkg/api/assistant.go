package api

// AssistantMessageRequest is the wire contract of the raw gateway endpoint.
// AssistantId/ThreadId are only honored when ContinueSession is set.
type AssistantMessageRequest struct {
	Message         string   `json:"message"`
	FileIds         []string `json:"file_ids,omitempty"`
	AssistantId     string   `json:"assistantId,omitempty"`
	ThreadId        string   `json:"threadId,omitempty"`
	ContinueSession bool     `json:"continueSession,omitempty"`
}

type AssistantMessageResponse struct {
	Response         string `json:"response"`
	AssistantId      string `json:"assistantId"`
	ThreadId         string `json:"threadId"`
	RunId            string `json:"runId"`
	Timestamp        string `json:"timestamp"`
	SessionContinued bool   `json:"sessionContinued"`
}

type AssistantErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// ChatTurnRequest drives the session-aware chat endpoint. The session is
// resolved from the caller's user-id header, not from the body.
type ChatTurnRequest struct {
	Message string `json:"message"`
}

type ChatTurnResponse struct {
	Reply            string              `json:"reply"`
	SessionId        string              `json:"session_id"`
	AssistantId      string              `json:"assistantId,omitempty"`
	ThreadId         string              `json:"threadId,omitempty"`
	RunId            string              `json:"runId,omitempty"`
	Timestamp        string              `json:"timestamp"`
	SessionContinued bool                `json:"sessionContinued"`
	Fallback         bool                `json:"fallback"`
	References       []DocumentReference `json:"references,omitempty"`
}

type CompletionRequest struct {
	Message string              `json:"message"`
	History []CompletionMessage `json:"chat_history,omitempty"`
	Model   string              `json:"selected_model,omitempty"`
}

type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionResponse struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
}

type SessionMetadata struct {
	Id           string `json:"id"`
	Owner        string `json:"owner"`
	AssistantId  string `json:"assistantId,omitempty"`
	ThreadId     string `json:"threadId,omitempty"`
	Exchanges    int    `json:"exchanges"`
	CreatedAt    string `json:"created_at"`
	LastActivity string `json:"last_activity"`
	Current      bool   `json:"current"`
}

type GetSessionsResponse struct {
	Sessions []SessionMetadata `json:"sessions"`
}

type CreateSessionResponse struct {
	SessionId string `json:"session_id"`
}

type SetCurrentSessionRequest struct {
	SessionId string `json:"session_id"`
}

type GetSessionResponse struct {
	Session SessionMetadata `json:"session"`
	History []ExchangeItem  `json:"history"`
}

type ExchangeItem struct {
	Query       string `json:"query"`
	Response    string `json:"response"`
	Timestamp   string `json:"timestamp"`
	AssistantId string `json:"assistantId,omitempty"`
	ThreadId    string `json:"threadId,omitempty"`
	RunId       string `json:"runId,omitempty"`
}

type ContextWindowResponse struct {
	Context string `json:"context"`
}

type DocumentReference struct {
	Id         string  `json:"id"`
	Title      string  `json:"title"`
	Url        string  `json:"url"`
	Snippet    string  `json:"snippet,omitempty"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}
