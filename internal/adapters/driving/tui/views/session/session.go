// Package session provides the live document view for the TUI: OCR status,
// extracted text and the chat transcript, kept current by a DocumentSession.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/components/input"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/components/transcript"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/keymap"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/messages"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/styles"
	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driving"
)

// Focus selects which pane receives keys.
type Focus int

const (
	// FocusText scrolls the extracted text.
	FocusText Focus = iota
	// FocusChat types into the question input.
	FocusChat
)

// View is the live document view.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	sessions driving.SessionFactory
	ctx      context.Context

	documentID string
	session    driving.DocumentSession
	state      domain.SessionView
	starting   bool
	err        error
	notice     string

	text         string
	lines        []string
	scrollOffset int

	transcript *transcript.Transcript
	input      *input.ChatInput
	bar        progress.Model
	focus      Focus

	width  int
	height int
	ready  bool
}

// NewView creates a new session view.
func NewView(s *styles.Styles, km *keymap.KeyMap, sessions driving.SessionFactory) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		sessions:   sessions,
		ctx:        context.Background(),
		transcript: transcript.New(s),
		input:      input.NewChatInput(s),
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		width:      80,
		height:     24,
	}
}

// WithContext sets the context used to start sessions.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Open closes any current session and starts one for documentID.
func (v *View) Open(documentID string) tea.Cmd {
	v.Close()
	v.documentID = documentID
	v.state = domain.SessionView{Document: domain.Document{ID: documentID}}
	v.starting = true
	v.err = nil
	v.notice = ""
	v.focus = FocusText
	v.setText("")
	v.transcript.SetMessages(nil, nil)
	v.input.Reset()
	v.syncInput()

	if v.sessions == nil {
		v.starting = false
		v.err = errors.New("session factory not available")
		return nil
	}

	sess := v.sessions.Open(documentID)
	ctx := v.ctx
	return func() tea.Msg {
		if err := sess.Start(ctx); err != nil {
			sess.Close() //nolint:errcheck // start error is reported
			return messages.SessionStarted{DocumentID: documentID, Err: err}
		}
		return messages.SessionStarted{DocumentID: documentID, Session: sess}
	}
}

// Close releases the current session. Safe to call without one.
func (v *View) Close() {
	if v.session == nil {
		return
	}
	sess := v.session
	v.session = nil
	go sess.Close() //nolint:errcheck // close leaves the room best effort
}

// Shutdown closes the current session and waits for it to leave the room.
func (v *View) Shutdown() {
	if v.session == nil {
		return
	}
	sess := v.session
	v.session = nil
	sess.Close() //nolint:errcheck // exiting
}

// waitForUpdate blocks on the session's update stream.
func waitForUpdate(sess driving.DocumentSession) tea.Cmd {
	return func() tea.Msg {
		view, ok := <-sess.Updates()
		if !ok {
			return messages.SessionUpdated{Session: sess, Closed: true}
		}
		return messages.SessionUpdated{Session: sess, View: view}
	}
}

// waitForAnswer blocks until the submitted question resolves.
func waitForAnswer(sess driving.DocumentSession, results <-chan domain.AskResult) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-results
		if !ok {
			res = domain.AskResult{Err: domain.ErrSessionClosed}
		}
		return messages.AnswerReceived{Session: sess, Result: res}
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the session view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SessionStarted:
		if msg.DocumentID != v.documentID || !v.starting {
			if msg.Session != nil {
				go msg.Session.Close() //nolint:errcheck // stale session
			}
			return v, nil
		}
		v.starting = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.session = msg.Session
		return v, v.applyAndWait(msg.Session, msg.Session.View())

	case messages.SessionUpdated:
		if msg.Session == nil || msg.Session != v.session || msg.Closed {
			return v, nil
		}
		return v, v.applyAndWait(msg.Session, msg.View)

	case messages.AnswerReceived:
		if msg.Session == nil || msg.Session != v.session {
			return v, nil
		}
		if msg.Result.Err != nil {
			v.notice = askFailure(msg.Result.Err)
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	if v.focus == FocusChat {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

// applyAndWait applies state and keeps listening while the session is attached.
func (v *View) applyAndWait(sess driving.DocumentSession, state domain.SessionView) tea.Cmd {
	cmd := v.apply(state)
	if v.session == nil {
		return cmd
	}
	return tea.Batch(cmd, waitForUpdate(sess))
}

// apply renders a new session state. A deleted document ends the view.
func (v *View) apply(state domain.SessionView) tea.Cmd {
	v.state = state
	if state.Err != nil {
		v.err = state.Err
	}
	if state.Document.Status == domain.StatusCompleted {
		v.setText(state.Document.ExtractedText)
	} else {
		v.setText("")
	}
	v.transcript.SetMessages(state.Transcript, state.Pending)

	cmd := v.syncInput()
	if state.Deleted {
		id := v.documentID
		v.Close()
		return func() tea.Msg {
			return messages.DocumentDeleted{DocumentID: id}
		}
	}
	return cmd
}

// syncInput enables the chat input only while a question may be asked.
// Chat focus survives a disabled spell so typing resumes after an answer.
func (v *View) syncInput() tea.Cmd {
	reason := v.inputBlockedReason()
	if reason != "" {
		v.input.SetEnabled(false, reason)
		return nil
	}
	v.input.SetEnabled(true, "")
	if v.focus == FocusChat {
		return v.input.Focus()
	}
	return nil
}

func (v *View) inputBlockedReason() string {
	switch {
	case v.state.Deleted:
		return "Document was deleted"
	case v.session == nil || !v.state.Loaded:
		return "Loading document..."
	case v.state.Document.Status == domain.StatusProcessing:
		return "Waiting for OCR to finish"
	case v.state.Document.Status == domain.StatusFailed:
		return "OCR failed, chat unavailable"
	case v.state.Pending != nil:
		return "Waiting for the answer..."
	case !v.state.CanAsk():
		return "Chat unavailable"
	}
	return ""
}

func askFailure(err error) string {
	switch {
	case errors.Is(err, domain.ErrTimeout):
		return "No answer arrived in time. Ask again."
	case errors.Is(err, domain.ErrSessionClosed):
		return ""
	default:
		return fmt.Sprintf("Question failed: %v", err)
	}
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Back):
		v.Close()
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDocuments}
		}
	case keymap.Matches(msg.String(), v.keymap.Focus):
		return v, v.toggleFocus()
	}

	if v.focus == FocusChat {
		return v.handleChatKey(msg)
	}
	return v.handleTextKey(msg)
}

func (v *View) toggleFocus() tea.Cmd {
	if v.focus == FocusChat {
		v.focus = FocusText
		v.input.Blur()
		return nil
	}
	v.focus = FocusChat
	return v.input.Focus()
}

func (v *View) handleChatKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return v, v.submit()
	case "pgup":
		v.transcript.ScrollUp(v.chatHeight())
		return v, nil
	case "pgdown":
		v.transcript.ScrollDown(v.chatHeight())
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question. The echo arrives with the next update.
func (v *View) submit() tea.Cmd {
	if v.session == nil {
		return nil
	}
	question, ok := v.input.Submit()
	if !ok {
		return nil
	}
	results, err := v.session.Submit(question)
	if err != nil {
		v.input.SetValue(question)
		v.notice = fmt.Sprintf("Question failed: %v", err)
		return nil
	}
	v.notice = ""
	sess := v.session
	return tea.Batch(v.apply(sess.View()), waitForAnswer(sess, results))
}

func (v *View) handleTextKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.textHeight(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.textHeight(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "q":
		v.Close()
		return v, func() tea.Msg { return messages.Quit{} }
	}
	return v, nil
}

// setText replaces the extracted text, keeping the scroll position when
// the text is unchanged.
func (v *View) setText(text string) {
	if text == v.text {
		return
	}
	v.text = text
	v.scrollOffset = 0
	v.wrapContent()
}

// wrapContent wraps the extracted text to the view width.
func (v *View) wrapContent() {
	if v.text == "" {
		v.lines = nil
		return
	}

	contentWidth := v.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}
	v.lines = strings.Split(ansi.Wrap(v.text, contentWidth, ""), "\n")
	if v.scrollOffset > v.maxScrollOffset() {
		v.scrollOffset = v.maxScrollOffset()
	}
}

// paneHeights splits the space left after the fixed rows between the
// extracted text and the transcript.
func (v *View) paneHeights() (text, chat int) {
	// Title, banner, rules, pane headers, bordered input, notice and help
	reserved := 13
	available := v.height - reserved
	if available < 2 {
		return 1, 1
	}
	text = available * 2 / 5
	if text < 1 {
		text = 1
	}
	return text, available - text
}

func (v *View) textHeight() int {
	h, _ := v.paneHeights()
	return h
}

func (v *View) chatHeight() int {
	_, h := v.paneHeights()
	return h
}

// maxScrollOffset returns the maximum scroll offset of the text pane.
func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.textHeight(), 0)
}

// View renders the session view.
func (v *View) View() string {
	var b strings.Builder

	doc := v.state.Document
	b.WriteString(v.styles.Title.Render(doc.DisplayName()))
	if doc.OriginalName != "" {
		b.WriteString(v.styles.Muted.Render("  " + doc.ID))
	}
	b.WriteString("\n")
	b.WriteString(v.renderBanner())
	b.WriteString("\n")
	b.WriteString(v.rule())
	b.WriteString("\n")

	if v.err != nil && v.session == nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render("[esc] back"))
		return b.String()
	}

	b.WriteString(v.renderPaneHeader("Extracted text", v.focus == FocusText))
	b.WriteString("\n")
	b.WriteString(v.renderText())
	b.WriteString("\n")
	b.WriteString(v.renderPaneHeader("Chat", v.focus == FocusChat))
	b.WriteString("\n")
	b.WriteString(v.transcript.View())
	b.WriteString("\n")
	b.WriteString(v.input.View())
	b.WriteString("\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case v.notice != "":
		b.WriteString(v.styles.Warning.Render(v.notice))
	}
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderBanner renders the OCR status line.
func (v *View) renderBanner() string {
	doc := v.state.Document
	if v.starting || !v.state.Loaded {
		return v.styles.Muted.Render("Loading...")
	}

	status := v.styles.ForStatus(doc.Status)
	switch doc.Status {
	case domain.StatusProcessing:
		line := status.Render("Processing")
		if v.state.Progress > 0 {
			v.bar.Width = min(max(v.width/3, 10), 40)
			line += "  " + v.bar.ViewAs(v.state.Progress/100) +
				v.styles.Muted.Render(fmt.Sprintf(" %.0f%%", v.state.Progress))
		}
		return line
	case domain.StatusCompleted:
		return status.Render("Completed") +
			v.styles.Muted.Render(fmt.Sprintf("  %d characters extracted", len(doc.ExtractedText)))
	case domain.StatusFailed:
		reason := doc.FailureReason
		if reason == "" {
			reason = "no reason given"
		}
		return status.Render("Failed: " + reason)
	default:
		return status.Render(doc.Status.Label())
	}
}

func (v *View) renderPaneHeader(title string, focused bool) string {
	if focused {
		return v.styles.Subtitle.Render("▸ " + title)
	}
	return v.styles.Muted.Render("  " + title)
}

// renderText renders the visible part of the extracted text.
func (v *View) renderText() string {
	height := v.textHeight()
	var placeholder string
	switch {
	case v.state.Document.Status == domain.StatusProcessing:
		placeholder = "Text will appear when OCR finishes."
	case v.state.Document.Status == domain.StatusFailed:
		placeholder = "No text was extracted."
	case len(v.lines) == 0:
		placeholder = "(No content)"
	}
	if placeholder != "" {
		return v.styles.Muted.Render(placeholder) + strings.Repeat("\n", height-1)
	}

	end := min(v.scrollOffset+height, len(v.lines))
	out := make([]string, 0, height)
	for i := v.scrollOffset; i < end; i++ {
		out = append(out, v.styles.Normal.Render(v.lines[i]))
	}
	if len(v.lines) > height {
		percentage := 0
		if v.maxScrollOffset() > 0 {
			percentage = v.scrollOffset * 100 / v.maxScrollOffset()
		}
		out[len(out)-1] = v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
			percentage, v.scrollOffset+1, end, len(v.lines)))
	}
	for len(out) < height {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

func (v *View) rule() string {
	return v.styles.Muted.Render(strings.Repeat("─", min(max(v.width-4, 10), 80)))
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	bindings := v.keymap.TextHelp()
	if v.focus == FocusChat {
		bindings = v.keymap.ChatHelp()
	}
	hints := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		hints = append(hints, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	return v.styles.Help.Render(strings.Join(hints, "  "))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	_, chat := v.paneHeights()
	v.transcript.SetDimensions(width, chat)
	v.wrapContent()
}

// DocumentID returns the document shown by the view.
func (v *View) DocumentID() string {
	return v.documentID
}

// State returns the last applied session state.
func (v *View) State() domain.SessionView {
	return v.state
}

// Connection returns the push channel state of the active session.
func (v *View) Connection() domain.ConnectionState {
	return v.state.Connection
}

// Active reports whether a started session is attached.
func (v *View) Active() bool {
	return v.session != nil
}

// Focus returns the focused pane.
func (v *View) Focus() Focus {
	return v.focus
}

// Notice returns the last question failure shown to the user.
func (v *View) Notice() string {
	return v.notice
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
