package api

import (
	"time"

	"github.com/google/uuid"
)

type CreateChatRequest struct {
	Title string `json:"title"`
}

type Chat struct {
	Id        uuid.UUID `json:"id"`
	UserId    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GetChatsResponse struct {
	Chats []Chat `json:"chats"`
}

type RenameChatRequest struct {
	Title string `json:"title"`
}

type AddChatMessageRequest struct {
	Role     string           `json:"role"`
	Content  string           `json:"content"`
	Metadata *MessageMetadata `json:"metadata,omitempty"`
}

// MessageMetadata is the closed set of fields ever attached to a message.
type MessageMetadata struct {
	AssistantId string `json:"assistantId,omitempty"`
	ThreadId    string `json:"threadId,omitempty"`
	RunId       string `json:"runId,omitempty"`
}

type ChatMessage struct {
	Id        uuid.UUID        `json:"id"`
	ChatId    uuid.UUID        `json:"chat_id"`
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}
