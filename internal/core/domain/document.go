package domain

import "time"

// DocumentStatus is the OCR processing status of a document.
// Values match the wire spelling used by the document service.
type DocumentStatus string

// Available document statuses.
const (
	// StatusProcessing means OCR has been queued or is running.
	StatusProcessing DocumentStatus = "PROCESSING"

	// StatusCompleted means OCR finished and ExtractedText is available.
	StatusCompleted DocumentStatus = "COMPLETED"

	// StatusFailed means OCR finished without producing text.
	StatusFailed DocumentStatus = "FAILED"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for Completed and Failed.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next respects the
// forward-only lifecycle. Staying in the same status is always allowed.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	if s == next {
		return true
	}
	return s == StatusProcessing && next.IsTerminal()
}

// Label returns a short human-readable label.
func (s DocumentStatus) Label() string {
	switch s {
	case StatusProcessing:
		return "Processing"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return unknownDescription
	}
}

// String returns the wire representation.
func (s DocumentStatus) String() string {
	return string(s)
}

const unknownDescription = "Unknown"

// Document is an uploaded document as seen by the client.
type Document struct {
	// ID is the opaque identifier, stable for the document's lifetime.
	ID string

	// OriginalName is the file name the user uploaded.
	OriginalName string

	// StorageURL points at the stored original file.
	StorageURL string

	// Status is the OCR processing status.
	Status DocumentStatus

	// ExtractedText is the OCR output. Only meaningful when Completed.
	ExtractedText string

	// FailureReason carries the error reported by an ocr:failed event.
	FailureReason string

	// FileSize is the original file size in bytes.
	FileSize int64

	// CreatedAt is immutable once the document exists.
	CreatedAt time.Time
}

// DisplayName returns the original file name, falling back to the ID.
func (d *Document) DisplayName() string {
	if d.OriginalName != "" {
		return d.OriginalName
	}
	return d.ID
}

// Role identifies who authored a chat message.
type Role string

// Available message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is a single entry of a conversation. Immutable once appended.
type Message struct {
	// ID identifies the message. Server messages carry the server id,
	// locally echoed messages get a client-generated id.
	ID string

	// Role is the author of the message.
	Role Role

	// Content is the message text.
	Content string

	// CreatedAt is when the message was created.
	CreatedAt time.Time
}

// SameContent reports whether two messages carry the same role and text.
func (m Message) SameContent(other Message) bool {
	return m.Role == other.Role && m.Content == other.Content
}

// Conversation is the ordered transcript attached to one document.
type Conversation struct {
	// ID is the server-side conversation id, empty until the server creates one.
	ID string

	// DocumentID links the conversation to its document.
	DocumentID string

	// Messages in insertion order.
	Messages []Message

	// CreatedAt is when the conversation was started.
	CreatedAt time.Time
}

// PendingQuestion is the single question awaiting an answer for a document.
type PendingQuestion struct {
	// ID is a client-local identifier used to tell timers apart.
	// It is never sent to the server.
	ID string

	// Content is the question text.
	Content string

	// SubmittedAt is when the question was asked.
	SubmittedAt time.Time

	// CorrelationID is the owning document id. The protocol correlates
	// answers by document, not by question.
	CorrelationID string

	// MessageIndex is the transcript position of the optimistic echo.
	MessageIndex int
}

// Snapshot is an authoritative point-in-time view of a document and its
// conversation, fetched over request/response.
type Snapshot struct {
	Document     Document
	Conversation Conversation
}

// RoomName returns the channel room that scopes events for a document.
func RoomName(documentID string) string {
	return "document:" + documentID
}
