// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/styles"
)

const defaultPlaceholder = "Ask a question about this document..."

// ChatInput wraps a bubbles textinput for typing questions.
// While disabled it ignores keystrokes and shows why in place of the placeholder.
type ChatInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
	enabled   bool
	reason    string
}

// NewChatInput creates a new chat input component. It starts disabled.
func NewChatInput(s *styles.Styles) *ChatInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = defaultPlaceholder
	ti.CharLimit = 2000
	ti.Width = 50

	return &ChatInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init initialises the chat input.
func (c *ChatInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages. Keys are dropped while disabled.
func (c *ChatInput) Update(msg tea.Msg) (*ChatInput, tea.Cmd) {
	if _, isKey := msg.(tea.KeyMsg); isKey && !c.enabled {
		return c, nil
	}
	var cmd tea.Cmd
	c.textinput, cmd = c.textinput.Update(msg)
	return c, cmd
}

// View renders the chat input.
func (c *ChatInput) View() string {
	label := c.styles.Subtitle.Render("Ask: ")
	if !c.enabled {
		label = c.styles.Muted.Render("Ask: ")
	}
	field := c.styles.InputField.Render(c.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// SetEnabled enables or disables typing. reason replaces the placeholder
// while disabled.
func (c *ChatInput) SetEnabled(enabled bool, reason string) {
	c.enabled = enabled
	c.reason = reason
	if enabled {
		c.textinput.Placeholder = defaultPlaceholder
		return
	}
	c.textinput.Placeholder = reason
	c.textinput.Blur()
}

// Enabled reports whether the input accepts keystrokes.
func (c *ChatInput) Enabled() bool {
	return c.enabled
}

// Reason returns why the input is disabled.
func (c *ChatInput) Reason() string {
	return c.reason
}

// Submit returns the trimmed question and clears the input.
// It reports false when disabled or when there is nothing to send.
func (c *ChatInput) Submit() (string, bool) {
	if !c.enabled {
		return "", false
	}
	question := strings.TrimSpace(c.textinput.Value())
	if question == "" {
		return "", false
	}
	c.textinput.Reset()
	return question, true
}

// Value returns the current input value.
func (c *ChatInput) Value() string {
	return c.textinput.Value()
}

// SetValue sets the input value.
func (c *ChatInput) SetValue(value string) {
	c.textinput.SetValue(value)
}

// Focus sets focus on the input. Disabled inputs stay blurred.
func (c *ChatInput) Focus() tea.Cmd {
	if !c.enabled {
		return nil
	}
	return c.textinput.Focus()
}

// Blur removes focus from the input.
func (c *ChatInput) Blur() {
	c.textinput.Blur()
}

// Focused returns whether the input is focused.
func (c *ChatInput) Focused() bool {
	return c.textinput.Focused()
}

// SetWidth sets the width of the input.
func (c *ChatInput) SetWidth(width int) {
	c.width = width
	// Account for label and padding
	inputWidth := width - 12
	if inputWidth < 20 {
		inputWidth = 20
	}
	c.textinput.Width = inputWidth
}

// Width returns the current width.
func (c *ChatInput) Width() int {
	return c.width
}

// Reset clears the input.
func (c *ChatInput) Reset() {
	c.textinput.Reset()
}
