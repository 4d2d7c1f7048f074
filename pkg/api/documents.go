package api

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id            uuid.UUID `json:"id"`
	UserId        string    `json:"user_id"`
	FileName      string    `json:"file_name"`
	FileType      string    `json:"file_type"`
	FileSize      int64     `json:"file_size"`
	Status        string    `json:"status"`
	StoragePath   string    `json:"storage_path"`
	VectorStoreId string    `json:"vector_store_id,omitempty"`
	Chunks        int       `json:"chunks,omitempty"`
	WordCount     int       `json:"word_count,omitempty"`
	Error         string    `json:"error,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

type UploadDocumentResponse struct {
	DocumentId uuid.UUID `json:"document_id"`
	Status     string    `json:"status"`
}

type GetDocumentsResponse struct {
	Documents []Document `json:"documents"`
}
