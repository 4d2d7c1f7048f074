package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func GetDocuments(db *gorm.DB, userId string) ([]Document, error) {
	var documents []Document
	err := db.Where("user_id = ?", userId).Order("upload_time DESC").Find(&documents).Error
	return documents, err
}

func GetDocument(db *gorm.DB, documentId uuid.UUID) (Document, error) {
	var document Document
	err := db.First(&document, "id = ?", documentId).Error
	return document, err
}

func CreateDocument(db *gorm.DB, document *Document) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Create(document).Error
}

func DeleteDocument(db *gorm.DB, documentId uuid.UUID) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Delete(&Document{}, "id = ?", documentId).Error
}

func UpdateDocumentStatus(ctx context.Context, db *gorm.DB, documentId uuid.UUID, status string) error {
	updates := map[string]any{"status": status}
	if status == DocumentReady || status == DocumentFailed {
		updates["processed_time"] = time.Now().UTC()
	}

	dbMutex.Lock()
	defer dbMutex.Unlock()
	if err := db.WithContext(ctx).Model(&Document{Id: documentId}).Updates(updates).Error; err != nil {
		slog.Error("error updating document status", "document_id", documentId, "status", status, "error", err)
		return err
	}
	return nil
}

func SaveDocumentResult(ctx context.Context, db *gorm.DB, documentId uuid.UUID, wordCount, chunkCount int) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.WithContext(ctx).Model(&Document{Id: documentId}).Updates(map[string]any{
		"status":         DocumentReady,
		"word_count":     wordCount,
		"chunk_count":    chunkCount,
		"processed_time": time.Now().UTC(),
	}).Error
}

func SaveDocumentError(ctx context.Context, db *gorm.DB, documentId uuid.UUID, errorMessage string) {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	err := db.WithContext(ctx).Model(&Document{Id: documentId}).Updates(map[string]any{
		"status":         DocumentFailed,
		"error":          sql.NullString{String: errorMessage, Valid: true},
		"processed_time": time.Now().UTC(),
	}).Error
	if err != nil {
		slog.Error("error saving document failure", "document_id", documentId, "error", err)
	}
}
