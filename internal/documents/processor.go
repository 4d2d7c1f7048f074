package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"thinktank-backend/internal/database"
	"thinktank-backend/internal/messaging"
	"thinktank-backend/internal/references"
	"thinktank-backend/internal/storage"

	"gorm.io/gorm"
)

// TaskProcessor consumes document tasks from the queue, extracts text from
// the stored upload, and records the result on the document row. Documents
// that parse successfully are registered with the reference resolver so the
// assistant can cite them.
type TaskProcessor struct {
	db       *gorm.DB
	storage  storage.ObjectStore
	reciever messaging.Reciever
	resolver *references.Resolver
}

func NewTaskProcessor(db *gorm.DB, storage storage.ObjectStore, reciever messaging.Reciever, resolver *references.Resolver) *TaskProcessor {
	return &TaskProcessor{
		db:       db,
		storage:  storage,
		reciever: reciever,
		resolver: resolver,
	}
}

func (proc *TaskProcessor) Start() {
	slog.Info("starting document task processor")

	for task := range proc.reciever.Tasks() {
		proc.ProcessTask(task)
	}
}

func (proc *TaskProcessor) Stop() {
	slog.Info("stopping document task processor")

	proc.reciever.Close()
}

func (proc *TaskProcessor) ProcessTask(task messaging.Task) {
	ctx := context.Background()

	if task.Type() != messaging.DocumentQueue {
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	var payload messaging.DocumentTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error("error unmarshalling document task", "error", err)
		if err := task.Reject(); err != nil { // Discard malformed message
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	if err := proc.processDocument(ctx, payload); err != nil {
		slog.Error("error processing document", "document_id", payload.DocumentId, "error", err)
		database.SaveDocumentError(ctx, proc.db, payload.DocumentId, err.Error())
		if err := task.Nack(); err != nil {
			slog.Error("error reporting processing failure on message from queue", "error", err)
		}
		return
	}

	slog.Info("successfully processed document", "document_id", payload.DocumentId)
	if err := task.Ack(); err != nil {
		slog.Error("error acknowledging message from queue", "error", err)
	}
}

func (proc *TaskProcessor) processDocument(ctx context.Context, payload messaging.DocumentTaskPayload) error {
	if err := database.UpdateDocumentStatus(ctx, proc.db, payload.DocumentId, database.DocumentProcessing); err != nil {
		return err
	}

	obj, err := proc.storage.GetObject(ctx, payload.StoragePath)
	if err != nil {
		return fmt.Errorf("error fetching document from storage: %w", err)
	}
	defer obj.Close()

	text, err := ExtractText(payload.FileName, obj)
	if err != nil {
		return err
	}

	chunks := ChunkText(text, chunkWords)

	if err := database.SaveDocumentResult(ctx, proc.db, payload.DocumentId, WordCount(text), len(chunks)); err != nil {
		return fmt.Errorf("error saving document result: %w", err)
	}

	if proc.resolver != nil {
		proc.resolver.Register(references.DocumentReference{
			Id:      payload.DocumentId.String(),
			Title:   payload.FileName,
			Url:     "/docs/" + payload.FileName,
			Source:  "Uploads/" + payload.UserId,
			Snippet: snippet(text),
		})
	}

	return nil
}

func snippet(text string) string {
	const snippetLen = 200
	if len(text) <= snippetLen {
		return text
	}
	return text[:snippetLen] + "..."
}
