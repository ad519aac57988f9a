package domain

// ConnectionState is the state of the push channel as seen by a session.
type ConnectionState int

// Connection states. Transitions follow
// Disconnected -> Connecting -> Connected -> Disconnected -> Reconnecting -> Connected.
const (
	ConnectionDisconnected ConnectionState = iota
	ConnectionConnecting
	ConnectionConnected
	ConnectionReconnecting
)

// String returns the string representation of the connection state.
func (s ConnectionState) String() string {
	switch s {
	case ConnectionDisconnected:
		return "disconnected"
	case ConnectionConnecting:
		return "connecting"
	case ConnectionConnected:
		return "connected"
	case ConnectionReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// SessionView is a read-only copy of one document session.
// Slices are owned by the view; mutating them does not affect the session.
type SessionView struct {
	// Document is the reduced document state.
	Document Document

	// Loaded is false until the first snapshot has been applied.
	Loaded bool

	// Progress is the last ocr:progress value while Processing.
	Progress float64

	// Transcript is the conversation in append order.
	Transcript []Message

	// Pending is the question awaiting an answer, if any.
	Pending *PendingQuestion

	// Connection is the push channel state.
	Connection ConnectionState

	// Deleted is set once the document was deleted externally.
	// The caller must navigate away.
	Deleted bool

	// Err is the last fatal session error (e.g. credential rejected on reconnect).
	Err error
}

// CanAsk reports whether a question may be submitted right now.
func (v *SessionView) CanAsk() bool {
	return !v.Deleted && v.Document.Status == StatusCompleted && v.Pending == nil
}

// AskResult is delivered once per submitted question.
type AskResult struct {
	// Answer is the assistant message when Err is nil.
	Answer Message

	// Err is ErrTimeout, ErrDocumentDeleted, ErrSessionClosed or a connectivity error.
	Err error
}
