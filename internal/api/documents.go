package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"thinktank-backend/internal/database"
	"thinktank-backend/internal/messaging"
	"thinktank-backend/internal/storage"
	"thinktank-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxUploadBytes bounds the multipart form size accepted per upload.
const maxUploadBytes = 20 * 1024 * 1024

var allowedUploadTypes = map[string]struct{}{
	".pdf":  {},
	".txt":  {},
	".md":   {},
	".csv":  {},
	".html": {},
	".json": {},
	".xml":  {},
}

// DocumentsService accepts knowledge-base uploads, stores the raw bytes, and
// queues them for text extraction.
type DocumentsService struct {
	db        *gorm.DB
	storage   storage.ObjectStore
	publisher messaging.Publisher
}

func NewDocumentsService(db *gorm.DB, store storage.ObjectStore, publisher messaging.Publisher) *DocumentsService {
	return &DocumentsService{
		db:        db,
		storage:   store,
		publisher: publisher,
	}
}

func (s *DocumentsService) AddRoutes(r chi.Router) {
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", RestHandler(s.GetDocuments))
		r.Post("/upload", RestHandler(s.UploadDocument))
		r.Get("/{document_id}", RestHandler(s.GetDocument))
		r.Delete("/{document_id}", RestHandler(s.DeleteDocument))
	})
}

func (s *DocumentsService) GetDocuments(r *http.Request) (any, error) {
	documents, err := database.GetDocuments(s.db, UserId(r))
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing documents: %w", err)
	}

	out := make([]api.Document, 0, len(documents))
	for _, document := range documents {
		out = append(out, convertDocument(document))
	}
	return api.GetDocumentsResponse{Documents: out}, nil
}

func (s *DocumentsService) UploadDocument(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse upload form")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "upload is missing a 'file' field")
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedUploadTypes[ext]; !ok {
		return nil, CodedErrorf(http.StatusBadRequest, "unsupported file type %q", ext)
	}

	userId := UserId(r)
	documentId := uuid.New()
	storagePath := fmt.Sprintf("uploads/%s/%s/%s", userId, documentId, filepath.Base(header.Filename))

	if err := s.storage.PutObject(r.Context(), storagePath, file); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error storing upload: %w", err)
	}

	document := database.Document{
		Id:          documentId,
		UserId:      userId,
		FileName:    header.Filename,
		FileType:    strings.TrimPrefix(ext, "."),
		SizeBytes:   header.Size,
		StoragePath: storagePath,
		Status:      database.DocumentUploaded,
		UploadTime:  time.Now().UTC(),
	}
	if err := database.CreateDocument(s.db, &document); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error recording upload: %w", err)
	}

	err = s.publisher.PublishDocumentTask(r.Context(), messaging.DocumentTaskPayload{
		DocumentId:  documentId,
		StoragePath: storagePath,
		FileName:    header.Filename,
		FileType:    document.FileType,
		UserId:      userId,
	})
	if err != nil {
		// The upload is durable; processing can be retried once the queue
		// recovers, so the document stays in UPLOADED.
		slog.Error("error queueing document for processing", "document_id", documentId, "error", err)
	}

	return api.UploadDocumentResponse{DocumentId: documentId, Status: document.Status}, nil
}

func (s *DocumentsService) GetDocument(r *http.Request) (any, error) {
	document, err := s.ownedDocument(r)
	if err != nil {
		return nil, err
	}
	return convertDocument(document), nil
}

func (s *DocumentsService) DeleteDocument(r *http.Request) (any, error) {
	document, err := s.ownedDocument(r)
	if err != nil {
		return nil, err
	}

	if err := s.storage.DeleteObject(r.Context(), document.StoragePath); err != nil {
		slog.Error("error deleting stored document", "document_id", document.Id, "error", err)
	}

	if err := database.DeleteDocument(s.db, document.Id); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting document: %w", err)
	}
	return nil, nil
}

func (s *DocumentsService) ownedDocument(r *http.Request) (database.Document, error) {
	documentId, err := URLParamUUID(r, "document_id")
	if err != nil {
		return database.Document{}, err
	}

	document, err := database.GetDocument(s.db, documentId)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Document{}, CodedErrorf(http.StatusNotFound, "document %s not found", documentId)
	} else if err != nil {
		return database.Document{}, CodedErrorf(http.StatusInternalServerError, "error loading document: %w", err)
	}

	if document.UserId != UserId(r) {
		return database.Document{}, CodedErrorf(http.StatusNotFound, "document %s not found", documentId)
	}
	return document, nil
}

func convertDocument(document database.Document) api.Document {
	return api.Document{
		Id:          document.Id,
		UserId:      document.UserId,
		FileName:    document.FileName,
		FileType:    document.FileType,
		FileSize:    document.SizeBytes,
		Status:      document.Status,
		StoragePath: document.StoragePath,
		Chunks:      document.ChunkCount,
		WordCount:   document.WordCount,
		Error:       document.Error.String,
		UploadedAt:  document.UploadTime,
	}
}
