// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/keymap"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/styles"
	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

// Bar displays the push channel state, a transient message and keybinding hints.
type Bar struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	connection domain.ConnectionState
	live       bool
	message    string
	isError    bool
	hints      []key.Binding
	width      int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		hints:  km.ListHelp(),
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the connection indicator followed by the message.
func (s *Bar) renderLeft() string {
	var parts []string
	if s.live {
		dot := s.styles.ForConnection(s.connection).Render("●")
		parts = append(parts, dot+" "+s.styles.Muted.Render(s.connection.String()))
	}
	switch {
	case s.message != "" && s.isError:
		parts = append(parts, s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message)))
	case s.message != "":
		parts = append(parts, s.styles.Normal.Render(s.message))
	case !s.live:
		parts = append(parts, s.styles.Muted.Render("Ready"))
	}
	return strings.Join(parts, "  ")
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	hints := make([]string, 0, len(s.hints))
	for _, b := range s.hints {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetConnection shows the push channel state. Bars without a live
// session hide the indicator.
func (s *Bar) SetConnection(state domain.ConnectionState) {
	s.connection = state
	s.live = true
}

// ClearConnection hides the connection indicator.
func (s *Bar) ClearConnection() {
	s.live = false
	s.connection = domain.ConnectionDisconnected
}

// Connection returns the displayed connection state and whether it is shown.
func (s *Bar) Connection() (domain.ConnectionState, bool) {
	return s.connection, s.live
}

// SetMessage sets an informational message.
func (s *Bar) SetMessage(message string) {
	s.message = message
	s.isError = false
}

// SetError shows err as the message. A nil error clears it.
func (s *Bar) SetError(err error) {
	if err == nil {
		s.message = ""
		s.isError = false
		return
	}
	s.message = err.Error()
	s.isError = true
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// IsError reports whether the message is an error.
func (s *Bar) IsError() bool {
	return s.isError
}

// SetHints replaces the keybinding hints.
func (s *Bar) SetHints(bindings []key.Binding) {
	s.hints = bindings
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.ClearConnection()
	s.message = ""
	s.isError = false
	s.hints = s.keymap.ListHelp()
}
