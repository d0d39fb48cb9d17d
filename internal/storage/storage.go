package storage

import (
	"context"
	"fmt"

	"github.com/IshaanNene/presscorpus/internal/types"
)

// Storage is the interface for article export backends.
type Storage interface {
	// Store persists a batch of articles.
	Store(ctx context.Context, articles []types.Article) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// Export stores articles in out and closes it. A Close failure is returned
// when the write itself succeeded, since buffered data may not have reached
// the backend.
func Export(ctx context.Context, out Storage, articles []types.Article) (err error) {
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = &types.StorageError{Backend: out.Name(), Err: fmt.Errorf("close: %w", cerr)}
		}
	}()
	return out.Store(ctx, articles)
}
