// Package transcript renders a document's chat history for the TUI.
package transcript

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/styles"
	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

// Transcript displays chat messages, oldest first, anchored to the most
// recent message.
type Transcript struct {
	messages []domain.Message
	pending  *domain.PendingQuestion
	styles   *styles.Styles
	width    int
	height   int
	offset   int
}

// New creates a new transcript component.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &Transcript{
		styles: s,
		width:  80,
		height: 10,
	}
}

// SetMessages replaces the transcript. Scrolling resets to the newest message
// whenever a message is added.
func (t *Transcript) SetMessages(messages []domain.Message, pending *domain.PendingQuestion) {
	if len(messages) != len(t.messages) {
		t.offset = 0
	}
	t.messages = messages
	t.pending = pending
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	lines := t.lines()
	if len(lines) == 0 {
		return t.styles.Muted.Render("No messages yet.")
	}

	end := len(lines) - t.offset
	start := end - t.height
	if start < 0 {
		start = 0
	}
	return strings.Join(lines[start:end], "\n")
}

// lines renders every message into display lines.
func (t *Transcript) lines() []string {
	bodyWidth := t.width - 4
	if bodyWidth < 20 {
		bodyWidth = 20
	}

	lines := make([]string, 0, len(t.messages)*3)
	for i := range t.messages {
		m := &t.messages[i]
		lines = append(lines, t.styles.ForRole(m.Role).Render(roleLabel(m.Role)))
		for _, l := range strings.Split(ansi.Wrap(m.Content, bodyWidth, ""), "\n") {
			lines = append(lines, t.styles.Normal.Render("  "+l))
		}
	}
	if t.pending != nil {
		waited := ""
		if !t.pending.SubmittedAt.IsZero() {
			waited = fmt.Sprintf(" (asked %s)", t.pending.SubmittedAt.Format("15:04:05"))
		}
		lines = append(lines, t.styles.Muted.Render("Assistant is thinking..."+waited))
	}
	return lines
}

func roleLabel(role domain.Role) string {
	if role == domain.RoleUser {
		return "You"
	}
	return "Assistant"
}

// ScrollUp moves towards older messages.
func (t *Transcript) ScrollUp(n int) {
	t.offset += n
	if limit := t.maxOffset(); t.offset > limit {
		t.offset = limit
	}
}

// ScrollDown moves towards the newest message.
func (t *Transcript) ScrollDown(n int) {
	t.offset -= n
	if t.offset < 0 {
		t.offset = 0
	}
}

func (t *Transcript) maxOffset() int {
	limit := len(t.lines()) - t.height
	if limit < 0 {
		return 0
	}
	return limit
}

// SetDimensions sets the component dimensions.
func (t *Transcript) SetDimensions(width, height int) {
	t.width = width
	if height < 1 {
		height = 1
	}
	t.height = height
}

// Offset returns how many lines the view is scrolled back from the newest.
func (t *Transcript) Offset() int {
	return t.offset
}

// Count returns the number of messages.
func (t *Transcript) Count() int {
	return len(t.messages)
}

// IsEmpty returns whether the transcript has no messages.
func (t *Transcript) IsEmpty() bool {
	return len(t.messages) == 0 && t.pending == nil
}
