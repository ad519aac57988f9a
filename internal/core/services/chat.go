package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

// ChatManager owns the transcript of one document and enforces the
// single in-flight question rule. It is not safe for concurrent use;
// the owning session serialises all calls.
type ChatManager struct {
	documentID string
	transcript []domain.Message
	pending    *domain.PendingQuestion

	now   func() time.Time
	newID func() string
}

// NewChatManager creates a chat manager for a document.
func NewChatManager(documentID string) *ChatManager {
	return &ChatManager{
		documentID: documentID,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Begin validates and records a new question. On success the user
// message is already in the transcript and the caller must emit llm:ask.
func (c *ChatManager) Begin(status domain.DocumentStatus, question string) (domain.PendingQuestion, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.PendingQuestion{}, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if status != domain.StatusCompleted {
		return domain.PendingQuestion{}, fmt.Errorf("%w: document is %s, questions need a completed document",
			domain.ErrInvariantViolation, strings.ToLower(status.Label()))
	}
	if c.pending != nil {
		return domain.PendingQuestion{}, fmt.Errorf("%w: a question is already awaiting an answer",
			domain.ErrInvariantViolation)
	}

	now := c.now()
	c.transcript = append(c.transcript, domain.Message{
		ID:        c.newID(),
		Role:      domain.RoleUser,
		Content:   question,
		CreatedAt: now,
	})
	c.pending = &domain.PendingQuestion{
		ID:            c.newID(),
		Content:       question,
		SubmittedAt:   now,
		CorrelationID: c.documentID,
		MessageIndex:  len(c.transcript) - 1,
	}
	return *c.pending, nil
}

// Answer applies an llm:answer. It returns the appended assistant message
// and the resolved question, or ok=false when the answer is stale.
func (c *ChatManager) Answer(ev domain.LLMAnswer) (msg domain.Message, resolved domain.PendingQuestion, ok bool) {
	if c.pending == nil || ev.DocumentID != c.pending.CorrelationID {
		return domain.Message{}, domain.PendingQuestion{}, false
	}
	msg = domain.Message{
		ID:        c.newID(),
		Role:      domain.RoleAssistant,
		Content:   ev.Answer,
		CreatedAt: c.now(),
	}
	c.transcript = append(c.transcript, msg)
	resolved = *c.pending
	c.pending = nil
	return msg, resolved, true
}

// Expire clears the pending question if it is still the one identified by
// questionID. The user message stays in the transcript.
func (c *ChatManager) Expire(questionID string) bool {
	if c.pending == nil || c.pending.ID != questionID {
		return false
	}
	c.pending = nil
	return true
}

// Abandon clears any pending question and returns it.
func (c *ChatManager) Abandon() (domain.PendingQuestion, bool) {
	if c.pending == nil {
		return domain.PendingQuestion{}, false
	}
	p := *c.pending
	c.pending = nil
	return p, true
}

// Reconcile merges a server transcript into the local one.
//
// The server copy is adopted when it extends the local transcript
// (local messages match a prefix of it by role and content). When the
// server copy is shorter, only the local tail beyond it survives on top
// of it. Local messages are never dropped.
//
// If the merged transcript holds an assistant message after the pending
// question, the question is resolved and that message is returned.
func (c *ChatManager) Reconcile(remote []domain.Message) (answer domain.Message, resolved domain.PendingQuestion, ok bool) {
	merged, localIndex := mergeTranscripts(c.transcript, remote)
	c.transcript = merged

	if c.pending == nil {
		return domain.Message{}, domain.PendingQuestion{}, false
	}

	idx := localIndex(c.pending.MessageIndex)
	c.pending.MessageIndex = idx
	for i := idx + 1; i < len(c.transcript); i++ {
		if c.transcript[i].Role == domain.RoleAssistant {
			resolved = *c.pending
			c.pending = nil
			return c.transcript[i], resolved, true
		}
	}
	return domain.Message{}, domain.PendingQuestion{}, false
}

// Transcript returns a copy of the messages in append order.
func (c *ChatManager) Transcript() []domain.Message {
	out := make([]domain.Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Pending returns a copy of the pending question, if any.
func (c *ChatManager) Pending() *domain.PendingQuestion {
	if c.pending == nil {
		return nil
	}
	p := *c.pending
	return &p
}

// mergeTranscripts returns the merged transcript and a function mapping a
// local index to its position in the merged slice.
func mergeTranscripts(local, remote []domain.Message) ([]domain.Message, func(int) int) {
	// Longest k such that local[:k] matches remote[:k].
	k := 0
	for k < len(local) && k < len(remote) && local[k].SameContent(remote[k]) {
		k++
	}

	switch {
	case k == len(local):
		// Remote extends (or equals) local.
		merged := make([]domain.Message, len(remote))
		copy(merged, remote)
		return merged, func(i int) int { return i }
	case k == len(remote):
		// Local extends remote: keep remote ids for the shared prefix.
		merged := make([]domain.Message, 0, len(local))
		merged = append(merged, remote...)
		merged = append(merged, local[k:]...)
		return merged, func(i int) int { return i }
	default:
		// Diverged: remote first, then the local messages it does not hold.
		merged := make([]domain.Message, 0, len(remote)+len(local)-k)
		merged = append(merged, remote...)
		merged = append(merged, local[k:]...)
		offset := len(remote) - k
		return merged, func(i int) int {
			if i < k {
				return i
			}
			return i + offset
		}
	}
}
