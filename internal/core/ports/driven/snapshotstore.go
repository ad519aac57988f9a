package driven

import (
	"context"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

// SnapshotStore caches the last known snapshot of each document locally.
type SnapshotStore interface {
	// Save stores or replaces the snapshot for its document.
	Save(ctx context.Context, snapshot *domain.Snapshot) error

	// Get retrieves a snapshot. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, documentID string) (*domain.Snapshot, error)

	// List returns cached documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Delete removes a snapshot. Deleting a missing entry is not an error.
	Delete(ctx context.Context, documentID string) error
}
