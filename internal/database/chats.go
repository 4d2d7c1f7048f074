package database

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SQLite only supports one writer at a time, so we need a lock
// whenever we write to the database
var dbMutex sync.Mutex

func GetChats(db *gorm.DB, userId string) ([]Chat, error) {
	var chats []Chat
	err := db.Where("user_id = ?", userId).Order("updated_at DESC").Find(&chats).Error
	return chats, err
}

func CreateChat(db *gorm.DB, chat *Chat) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Create(chat).Error
}

func GetChat(db *gorm.DB, chatId uuid.UUID) (Chat, error) {
	var chat Chat
	err := db.First(&chat, "id = ?", chatId).Error
	return chat, err
}

func GetChatBySession(db *gorm.DB, userId, sessionId string) (Chat, error) {
	var chat Chat
	err := db.First(&chat, "user_id = ? AND session_id = ?", userId, sessionId).Error
	return chat, err
}

func RenameChat(db *gorm.DB, chatId uuid.UUID, title string) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Model(&Chat{Id: chatId}).Updates(map[string]any{
		"title":      title,
		"updated_at": time.Now().UTC(),
	}).Error
}

func TouchChat(db *gorm.DB, chatId uuid.UUID) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Model(&Chat{Id: chatId}).Update("updated_at", time.Now().UTC()).Error
}

func DeleteChat(db *gorm.DB, chatId uuid.UUID) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	if err := db.Delete(&ChatMessage{}, "chat_id = ?", chatId).Error; err != nil {
		return err
	}
	return db.Delete(&Chat{}, "id = ?", chatId).Error
}

func GetChatMessages(db *gorm.DB, chatId uuid.UUID) ([]ChatMessage, error) {
	var messages []ChatMessage
	err := db.Where("chat_id = ?", chatId).Order("created_at ASC").Find(&messages).Error
	return messages, err
}

func SaveChatMessage(db *gorm.DB, message *ChatMessage) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Create(message).Error
}
