package storage

import (
	"context"
	"io"
)

// ObjectStore holds uploaded document payloads. Keys are opaque storage
// paths recorded on the document row.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data io.Reader) error

	GetObject(ctx context.Context, key string) (io.ReadCloser, error)

	DeleteObject(ctx context.Context, key string) error
}
