package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"thinktank-backend/internal/database"
	"thinktank-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxTitleLength matches the clamp applied when titles are derived from the
// first message of a session.
const maxTitleLength = 100

func clampTitle(title string) string {
	if len(title) > maxTitleLength {
		return title[:maxTitleLength]
	}
	return title
}

// ChatsService serves the durable chat history for authenticated users.
type ChatsService struct {
	db *gorm.DB
}

func NewChatsService(db *gorm.DB) *ChatsService {
	return &ChatsService{db: db}
}

func (s *ChatsService) AddRoutes(r chi.Router) {
	r.Route("/chats", func(r chi.Router) {
		r.Get("/", RestHandler(s.GetChats))
		r.Post("/", RestHandler(s.CreateChat))
		r.Get("/{chat_id}", RestHandler(s.GetChat))
		r.Post("/{chat_id}/rename", RestHandler(s.RenameChat))
		r.Delete("/{chat_id}", RestHandler(s.DeleteChat))
		r.Get("/{chat_id}/messages", RestHandler(s.GetMessages))
		r.Post("/{chat_id}/messages", RestHandler(s.AddMessage))
	})
}

type getChatsQuery struct {
	Limit int `schema:"limit"`
}

func (s *ChatsService) GetChats(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[getChatsQuery](r)
	if err != nil {
		return nil, err
	}

	chats, err := database.GetChats(s.db, UserId(r))
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing chats: %w", err)
	}

	if params.Limit > 0 && params.Limit < len(chats) {
		chats = chats[:params.Limit]
	}

	out := make([]api.Chat, 0, len(chats))
	for _, chat := range chats {
		out = append(out, convertChat(chat))
	}
	return api.GetChatsResponse{Chats: out}, nil
}

func (s *ChatsService) CreateChat(r *http.Request) (any, error) {
	req, err := ParseRequest[api.CreateChatRequest](r)
	if err != nil {
		return nil, err
	}

	title := clampTitle(req.Title)
	if title == "" {
		title = "New conversation"
	}

	now := time.Now().UTC()
	chat := database.Chat{
		Id:        uuid.New(),
		UserId:    UserId(r),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := database.CreateChat(s.db, &chat); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error creating chat: %w", err)
	}

	return convertChat(chat), nil
}

func (s *ChatsService) GetChat(r *http.Request) (any, error) {
	chat, err := s.ownedChat(r)
	if err != nil {
		return nil, err
	}
	return convertChat(chat), nil
}

func (s *ChatsService) RenameChat(r *http.Request) (any, error) {
	chat, err := s.ownedChat(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.RenameChatRequest](r)
	if err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "title is required")
	}

	if err := database.RenameChat(s.db, chat.Id, clampTitle(req.Title)); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error renaming chat: %w", err)
	}
	return nil, nil
}

func (s *ChatsService) DeleteChat(r *http.Request) (any, error) {
	chat, err := s.ownedChat(r)
	if err != nil {
		return nil, err
	}

	if err := database.DeleteChat(s.db, chat.Id); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting chat: %w", err)
	}
	return nil, nil
}

func (s *ChatsService) GetMessages(r *http.Request) (any, error) {
	chat, err := s.ownedChat(r)
	if err != nil {
		return nil, err
	}

	messages, err := database.GetChatMessages(s.db, chat.Id)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing chat messages: %w", err)
	}

	out := make([]api.ChatMessage, 0, len(messages))
	for _, message := range messages {
		out = append(out, convertChatMessage(message))
	}
	return out, nil
}

func (s *ChatsService) AddMessage(r *http.Request) (any, error) {
	chat, err := s.ownedChat(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.AddChatMessageRequest](r)
	if err != nil {
		return nil, err
	}
	if req.Role != database.RoleUser && req.Role != database.RoleAssistant {
		return nil, CodedErrorf(http.StatusBadRequest, "invalid role %q", req.Role)
	}
	if req.Content == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "content is required")
	}

	message := database.ChatMessage{
		Id:        uuid.New(),
		ChatId:    chat.Id,
		Role:      req.Role,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if req.Metadata != nil {
		metadata, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, CodedErrorf(http.StatusBadRequest, "invalid message metadata")
		}
		message.Metadata = metadata
	}

	if err := database.SaveChatMessage(s.db, &message); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error saving chat message: %w", err)
	}
	if err := database.TouchChat(s.db, chat.Id); err != nil {
		slog.Error("error updating chat activity", "chat_id", chat.Id, "error", err)
	}

	return convertChatMessage(message), nil
}

// ownedChat loads the chat from the url parameter and verifies the caller
// owns it. Chats of other users are reported as not found, not forbidden.
func (s *ChatsService) ownedChat(r *http.Request) (database.Chat, error) {
	chatId, err := URLParamUUID(r, "chat_id")
	if err != nil {
		return database.Chat{}, err
	}

	chat, err := database.GetChat(s.db, chatId)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Chat{}, CodedErrorf(http.StatusNotFound, "chat %s not found", chatId)
	} else if err != nil {
		return database.Chat{}, CodedErrorf(http.StatusInternalServerError, "error loading chat: %w", err)
	}

	if chat.UserId != UserId(r) {
		return database.Chat{}, CodedErrorf(http.StatusNotFound, "chat %s not found", chatId)
	}
	return chat, nil
}

func convertChat(chat database.Chat) api.Chat {
	return api.Chat{
		Id:        chat.Id,
		UserId:    chat.UserId,
		Title:     chat.Title,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}
}

func convertChatMessage(message database.ChatMessage) api.ChatMessage {
	out := api.ChatMessage{
		Id:        message.Id,
		ChatId:    message.ChatId,
		Role:      message.Role,
		Content:   message.Content,
		Timestamp: message.CreatedAt,
	}
	if len(message.Metadata) > 0 {
		var metadata api.MessageMetadata
		if err := json.Unmarshal(message.Metadata, &metadata); err == nil {
			out.Metadata = &metadata
		}
	}
	return out
}
