package driving

import (
	"context"
	"io"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

// DocumentService manages the caller's documents over request/response.
type DocumentService interface {
	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get returns the current snapshot of a document.
	Get(ctx context.Context, documentID string) (*domain.Snapshot, error)

	// Upload validates and uploads a local file.
	Upload(ctx context.Context, path string) (*domain.Document, error)

	// Delete removes a document.
	Delete(ctx context.Context, documentID string) error

	// Download writes the original file of a document to w.
	Download(ctx context.Context, documentID string, w io.Writer) error

	// History returns cached documents when a local store is configured.
	History(ctx context.Context) ([]domain.Document, error)

	// Cached returns a cached snapshot.
	Cached(ctx context.Context, documentID string) (*domain.Snapshot, error)
}
