package driving

import (
	"context"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

// DocumentSession is the live view of one document: OCR status, extracted
// text and chat transcript, kept current over the push channel.
//
// All state changes are serialised; View and Updates never observe a
// partially applied event.
type DocumentSession interface {
	// Start loads the snapshot, subscribes to the document room and connects.
	// Returns domain.ErrAuth or domain.ErrNotFound without retrying.
	Start(ctx context.Context) error

	// Close leaves the room, disconnects and fails any pending question
	// with domain.ErrSessionClosed. Idempotent.
	Close() error

	// View returns a copy of the current state.
	View() domain.SessionView

	// Updates delivers the latest view after each change. Intermediate
	// views may be skipped; the channel closes when the session closes.
	Updates() <-chan domain.SessionView

	// Deleted is closed when the document is deleted externally.
	Deleted() <-chan struct{}

	// Submit asks a question. The question is echoed into the transcript
	// immediately and the returned channel receives exactly one result.
	// Returns domain.ErrInvalidInput for an empty question and
	// domain.ErrInvariantViolation if the document is not Completed or a
	// question is already pending.
	Submit(question string) (<-chan domain.AskResult, error)

	// WaitSettled blocks until the document is Completed or Failed and
	// returns the view at that point. It fails with domain.ErrDocumentDeleted,
	// domain.ErrSessionClosed, the fatal session error or ctx.Err().
	WaitSettled(ctx context.Context) (domain.SessionView, error)

	// Ask submits a question and blocks until it resolves or ctx ends.
	Ask(ctx context.Context, question string) (domain.Message, error)
}

// SessionFactory opens sessions. Each session owns its own channel.
type SessionFactory interface {
	Open(documentID string) DocumentSession
}
