package services

import (
	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

// Outcome classifies what Reduce did with an event.
type Outcome int

// Reduce outcomes.
const (
	// OutcomeIgnored means the event was discarded without changing state.
	OutcomeIgnored Outcome = iota

	// OutcomeApplied means the event changed (or confirmed) the document.
	OutcomeApplied

	// OutcomeBuffered means the event arrived before the seed and was queued.
	OutcomeBuffered

	// OutcomeSeeded means a snapshot was adopted as the baseline.
	OutcomeSeeded

	// OutcomeDeleted means the document was deleted externally.
	OutcomeDeleted
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeApplied:
		return "applied"
	case OutcomeBuffered:
		return "buffered"
	case OutcomeSeeded:
		return "seeded"
	case OutcomeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Result describes the effect of one Reduce call.
type Result struct {
	Outcome Outcome

	// Reason explains an ignored event, for logging.
	Reason string

	// Changed is true when the document differs from the previous state.
	Changed bool

	// Replayed counts buffered events applied after a seed.
	Replayed int
}

// DocumentState is the reducer's model of one document.
// Values are immutable from the reducer's point of view: Reduce returns a
// new state and never mutates its input.
type DocumentState struct {
	// DocumentID is the id this state accepts events for.
	DocumentID string

	// Document is the current document view. Zero until Seeded.
	Document domain.Document

	// Progress is the last reported ocr:progress value.
	Progress float64

	// Seeded is true once a snapshot has been applied.
	Seeded bool

	// Deleted is true after document:deleted. Terminal.
	Deleted bool

	buffered []domain.Event
}

// NewDocumentState returns an unseeded state for a document.
func NewDocumentState(documentID string) DocumentState {
	return DocumentState{DocumentID: documentID}
}

// Buffered returns the number of events waiting for the seed.
func (s DocumentState) Buffered() int {
	return len(s.buffered)
}

// Reduce folds one event into the state.
func Reduce(state DocumentState, ev domain.Event) (DocumentState, Result) {
	if ev == nil {
		return state, Result{Outcome: OutcomeIgnored, Reason: "nil event"}
	}
	if state.Deleted {
		return state, Result{Outcome: OutcomeIgnored, Reason: "document deleted"}
	}
	if ev.Target() != state.DocumentID {
		return state, Result{Outcome: OutcomeIgnored, Reason: "document id mismatch"}
	}

	switch e := ev.(type) {
	case domain.DocumentDeleted:
		state.Deleted = true
		state.buffered = nil
		return state, Result{Outcome: OutcomeDeleted, Changed: true}
	case domain.SnapshotLoaded:
		return seed(state, e.Snapshot)
	case domain.LLMAnswer:
		return state, Result{Outcome: OutcomeIgnored, Reason: "chat event"}
	}

	if !state.Seeded {
		buf := make([]domain.Event, len(state.buffered), len(state.buffered)+1)
		copy(buf, state.buffered)
		state.buffered = append(buf, ev)
		return state, Result{Outcome: OutcomeBuffered}
	}

	return apply(state, ev)
}

// seed adopts a snapshot and replays buffered events against it.
func seed(state DocumentState, snap domain.Snapshot) (DocumentState, Result) {
	prev := state.Document
	incoming := snap.Document

	if state.Seeded && !prev.Status.CanTransitionTo(incoming.Status) {
		// Keep the local terminal state; take everything else from the snapshot.
		incoming.Status = prev.Status
		incoming.ExtractedText = prev.ExtractedText
		incoming.FailureReason = prev.FailureReason
	}
	if incoming.Status != domain.StatusCompleted {
		incoming.ExtractedText = ""
	}

	state.Document = incoming
	state.Seeded = true

	buffered := state.buffered
	state.buffered = nil

	res := Result{Outcome: OutcomeSeeded}
	for _, ev := range buffered {
		var r Result
		state, r = apply(state, ev)
		if r.Outcome == OutcomeApplied {
			res.Replayed++
		}
	}
	res.Changed = state.Document != prev
	return state, res
}

// apply handles lifecycle events once the state is seeded.
func apply(state DocumentState, ev domain.Event) (DocumentState, Result) {
	status := state.Document.Status

	switch e := ev.(type) {
	case domain.OCRStarted:
		if status != domain.StatusProcessing {
			return state, Result{Outcome: OutcomeIgnored, Reason: "started after " + status.Label()}
		}
		return state, Result{Outcome: OutcomeApplied}

	case domain.OCRProgress:
		if status != domain.StatusProcessing {
			return state, Result{Outcome: OutcomeIgnored, Reason: "progress after " + status.Label()}
		}
		changed := state.Progress != e.Progress
		state.Progress = e.Progress
		return state, Result{Outcome: OutcomeApplied, Changed: changed}

	case domain.OCRCompleted:
		if status.IsTerminal() {
			return state, Result{Outcome: OutcomeIgnored, Reason: "duplicate terminal event"}
		}
		state.Document.Status = domain.StatusCompleted
		state.Document.ExtractedText = e.ExtractedText
		state.Document.FailureReason = ""
		return state, Result{Outcome: OutcomeApplied, Changed: true}

	case domain.OCRFailed:
		if status.IsTerminal() {
			return state, Result{Outcome: OutcomeIgnored, Reason: "duplicate terminal event"}
		}
		state.Document.Status = domain.StatusFailed
		state.Document.ExtractedText = ""
		state.Document.FailureReason = e.Error
		return state, Result{Outcome: OutcomeApplied, Changed: true}

	default:
		return state, Result{Outcome: OutcomeIgnored, Reason: "unhandled event " + ev.Name()}
	}
}
