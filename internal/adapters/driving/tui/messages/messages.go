// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDocuments lists the user's documents.
	ViewDocuments ViewType = iota
	// ViewSession shows one document live: status, text and chat.
	ViewSession
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDocuments:
		return "documents"
	case ViewSession:
		return "session"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the user's documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected signals a document was chosen for a live session.
type DocumentSelected struct {
	DocumentID string
}

// DocumentDeleted signals a delete requested from the list finished.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// SessionStarted carries a session whose Start has returned.
// Session is nil when Err is set; the caller has already closed it.
type SessionStarted struct {
	DocumentID string
	Session    driving.DocumentSession
	Err        error
}

// SessionUpdated carries the latest view of a session.
// Closed is set when the update stream ended.
type SessionUpdated struct {
	Session driving.DocumentSession
	View    domain.SessionView
	Closed  bool
}

// AnswerReceived resolves the pending question of a session.
type AnswerReceived struct {
	Session driving.DocumentSession
	Result  domain.AskResult
}
