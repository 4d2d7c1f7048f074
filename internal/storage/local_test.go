package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"thinktank-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalObjectStoreRoundTrip(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, "uploads/alice/guide.pdf", strings.NewReader("pdf bytes")))

	obj, err := store.GetObject(ctx, "uploads/alice/guide.pdf")
	require.NoError(t, err)
	defer obj.Close()

	data, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))

	require.NoError(t, store.DeleteObject(ctx, "uploads/alice/guide.pdf"))

	_, err = store.GetObject(ctx, "uploads/alice/guide.pdf")
	assert.Error(t, err)
}

func TestLocalObjectStoreDeleteMissingKey(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.DeleteObject(context.Background(), "never/uploaded.txt"))
}

func TestLocalObjectStoreOverwrite(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.PutObject(ctx, "doc.txt", strings.NewReader("v1")))
	require.NoError(t, store.PutObject(ctx, "doc.txt", strings.NewReader("v2")))

	obj, err := store.GetObject(ctx, "doc.txt")
	require.NoError(t, err)
	defer obj.Close()

	data, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}
