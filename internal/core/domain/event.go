package domain

import (
	"encoding/json"
	"fmt"
)

// Inbound push event names. Case-sensitive.
const (
	EventOCRStarted      = "ocr:started"
	EventOCRProgress     = "ocr:progress"
	EventOCRCompleted    = "ocr:completed"
	EventOCRFailed       = "ocr:failed"
	EventDocumentDeleted = "document:deleted"
	EventLLMAnswer       = "llm:answer"
)

// Outbound event names.
const (
	EventJoinRoom  = "join_room"
	EventLeaveRoom = "leave_room"
	EventLLMAsk    = "llm:ask"
)

// InboundEvents lists every push event the client subscribes to.
var InboundEvents = []string{
	EventOCRStarted,
	EventOCRProgress,
	EventOCRCompleted,
	EventOCRFailed,
	EventDocumentDeleted,
	EventLLMAnswer,
}

// Event is a decoded push event. The set of implementations is closed.
type Event interface {
	// Name returns the wire event name.
	Name() string

	// Target returns the document id carried in the payload.
	Target() string

	isEvent()
}

// OCRStarted signals processing began.
type OCRStarted struct {
	DocumentID string
}

// OCRProgress is a processing heartbeat.
type OCRProgress struct {
	DocumentID string
	Progress   float64
}

// OCRCompleted signals terminal success.
type OCRCompleted struct {
	DocumentID    string
	ExtractedText string
}

// OCRFailed signals terminal failure.
type OCRFailed struct {
	DocumentID string
	Error      string
}

// DocumentDeleted signals external deletion.
type DocumentDeleted struct {
	DocumentID string
}

// LLMAnswer answers the single outstanding question of a document.
type LLMAnswer struct {
	DocumentID string
	Answer     string
}

// SnapshotLoaded seeds (or re-seeds) session state from a fetched snapshot.
// It never arrives over the channel.
type SnapshotLoaded struct {
	Snapshot Snapshot
}

// Name implements Event.
func (OCRStarted) Name() string { return EventOCRStarted }

// Target implements Event.
func (e OCRStarted) Target() string { return e.DocumentID }

func (OCRStarted) isEvent() {}

// Name implements Event.
func (OCRProgress) Name() string { return EventOCRProgress }

// Target implements Event.
func (e OCRProgress) Target() string { return e.DocumentID }

func (OCRProgress) isEvent() {}

// Name implements Event.
func (OCRCompleted) Name() string { return EventOCRCompleted }

// Target implements Event.
func (e OCRCompleted) Target() string { return e.DocumentID }

func (OCRCompleted) isEvent() {}

// Name implements Event.
func (OCRFailed) Name() string { return EventOCRFailed }

// Target implements Event.
func (e OCRFailed) Target() string { return e.DocumentID }

func (OCRFailed) isEvent() {}

// Name implements Event.
func (DocumentDeleted) Name() string { return EventDocumentDeleted }

// Target implements Event.
func (e DocumentDeleted) Target() string { return e.DocumentID }

func (DocumentDeleted) isEvent() {}

// Name implements Event.
func (LLMAnswer) Name() string { return EventLLMAnswer }

// Target implements Event.
func (e LLMAnswer) Target() string { return e.DocumentID }

func (LLMAnswer) isEvent() {}

// Name implements Event.
func (SnapshotLoaded) Name() string { return "snapshot" }

// Target implements Event.
func (e SnapshotLoaded) Target() string { return e.Snapshot.Document.ID }

func (SnapshotLoaded) isEvent() {}

// eventPayload is the union of all inbound payload keys.
// Pointers distinguish absent keys from empty values.
type eventPayload struct {
	DocumentID    *string  `json:"documentId"`
	Progress      *float64 `json:"progress"`
	ExtractedText *string  `json:"extractedText"`
	Error         *string  `json:"error"`
	Answer        *string  `json:"answer"`
}

// DecodeEvent converts a raw channel payload into a typed Event.
// Unknown names return ErrUnknownEvent; missing required keys return ErrInvalidEvent.
func DecodeEvent(name string, data []byte) (Event, error) {
	switch name {
	case EventOCRStarted, EventOCRProgress, EventOCRCompleted,
		EventOCRFailed, EventDocumentDeleted, EventLLMAnswer:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}

	var p eventPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidEvent, name, err)
	}
	if p.DocumentID == nil || *p.DocumentID == "" {
		return nil, fmt.Errorf("%w: %s: missing documentId", ErrInvalidEvent, name)
	}
	id := *p.DocumentID

	switch name {
	case EventOCRStarted:
		return OCRStarted{DocumentID: id}, nil
	case EventOCRProgress:
		ev := OCRProgress{DocumentID: id}
		if p.Progress != nil {
			ev.Progress = *p.Progress
		}
		return ev, nil
	case EventOCRCompleted:
		if p.ExtractedText == nil {
			return nil, fmt.Errorf("%w: %s: missing extractedText", ErrInvalidEvent, name)
		}
		return OCRCompleted{DocumentID: id, ExtractedText: *p.ExtractedText}, nil
	case EventOCRFailed:
		ev := OCRFailed{DocumentID: id}
		if p.Error != nil {
			ev.Error = *p.Error
		}
		return ev, nil
	case EventDocumentDeleted:
		return DocumentDeleted{DocumentID: id}, nil
	default:
		if p.Answer == nil {
			return nil, fmt.Errorf("%w: %s: missing answer", ErrInvalidEvent, name)
		}
		return LLMAnswer{DocumentID: id, Answer: *p.Answer}, nil
	}
}

// RoomRequest is the payload of join_room and leave_room.
type RoomRequest struct {
	Room string `json:"room"`
}

// AskRequest is the payload of llm:ask.
type AskRequest struct {
	DocumentID string `json:"documentId"`
	Question   string `json:"question"`
}
