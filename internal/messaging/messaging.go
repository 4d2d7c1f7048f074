package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	DocumentQueue   = "document_queue"
	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// DocumentTaskPayload tells a worker which uploaded document to process and
// where the raw bytes live.
type DocumentTaskPayload struct {
	DocumentId  uuid.UUID
	StoragePath string
	FileName    string
	FileType    string
	UserId      string
}

type Publisher interface {
	PublishDocumentTask(ctx context.Context, payload DocumentTaskPayload) error

	Close()
}

type Reciever interface {
	Tasks() <-chan Task

	Close()
}
