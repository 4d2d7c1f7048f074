package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"thinktank-backend/internal/session"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMirror persists session exchanges as durable chats so authenticated
// users keep their conversation history across restarts.
type ChatMirror struct {
	db *gorm.DB
}

func NewChatMirror(db *gorm.DB) *ChatMirror {
	return &ChatMirror{db: db}
}

var _ session.Mirror = (*ChatMirror)(nil)

// RecordExchange upserts the chat backing a session and appends the user and
// assistant messages of one exchange.
func (m *ChatMirror) RecordExchange(ctx context.Context, owner, sessionId, title string, exchange session.Exchange) error {
	chat, err := GetChatBySession(m.db.WithContext(ctx), owner, sessionId)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		chat = Chat{
			Id:        uuid.New(),
			UserId:    owner,
			SessionId: sessionId,
			Title:     title,
			CreatedAt: exchange.Timestamp,
			UpdatedAt: exchange.Timestamp,
		}
		if err := CreateChat(m.db.WithContext(ctx), &chat); err != nil {
			return fmt.Errorf("error creating chat for session %s: %w", sessionId, err)
		}
	} else if err != nil {
		return fmt.Errorf("error looking up chat for session %s: %w", sessionId, err)
	}

	metadata, err := json.Marshal(exchange.Metadata)
	if err != nil {
		return fmt.Errorf("error encoding exchange metadata: %w", err)
	}

	userMessage := ChatMessage{
		Id:        uuid.New(),
		ChatId:    chat.Id,
		Role:      RoleUser,
		Content:   exchange.Query,
		CreatedAt: exchange.Timestamp,
	}
	if err := SaveChatMessage(m.db.WithContext(ctx), &userMessage); err != nil {
		return fmt.Errorf("error saving user message: %w", err)
	}

	assistantMessage := ChatMessage{
		Id:      uuid.New(),
		ChatId:  chat.Id,
		Role:    RoleAssistant,
		Content: exchange.Response,
		// The assistant reply sorts after the user message it answers.
		CreatedAt: exchange.Timestamp.Add(time.Millisecond),
		Metadata:  metadata,
	}
	if err := SaveChatMessage(m.db.WithContext(ctx), &assistantMessage); err != nil {
		return fmt.Errorf("error saving assistant message: %w", err)
	}

	return TouchChat(m.db.WithContext(ctx), chat.Id)
}
