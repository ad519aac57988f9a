package driven

import (
	"context"
	"io"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

// SnapshotLoader fetches the authoritative state of a document
// together with its conversation.
type SnapshotLoader interface {
	// Fetch returns the snapshot. Errors wrap domain.ErrNotFound,
	// domain.ErrAuth, domain.ErrServer or domain.ErrConnectivity.
	Fetch(ctx context.Context, documentID string) (*domain.Snapshot, error)
}

// DocumentAPI is the request/response surface of the document service.
type DocumentAPI interface {
	SnapshotLoader

	// List returns the caller's documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Upload sends a file for OCR and returns the created document.
	Upload(ctx context.Context, upload domain.Upload) (*domain.Document, error)

	// Delete removes a document. Subscribers receive document:deleted.
	Delete(ctx context.Context, documentID string) error

	// Download streams the originally uploaded file into w.
	Download(ctx context.Context, documentID string, w io.Writer) error
}

// CredentialProvider supplies the bearer token for both transports.
type CredentialProvider interface {
	// Token returns the current token or an error wrapping domain.ErrAuth.
	Token(ctx context.Context) (string, error)
}
