package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/components/status"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/keymap"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/messages"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/styles"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/views/documents"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/views/session"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	// documentsView lists the user's documents.
	documentsView *documents.View

	// sessionView shows one document live.
	sessionView *session.View

	// statusBar shows the connection state and hints.
	statusBar *status.Bar

	// initialDocument is opened straight away when set.
	initialDocument string

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		documentsView: documents.NewView(s, ports.Documents),
		sessionView:   session.NewView(s, km, ports.Sessions),
		statusBar:     status.NewBar(s, km),
		currentView:   messages.ViewDocuments,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.sessionView.WithContext(ctx)
	return a
}

// WithDocument opens the given document instead of the list on start.
func (a *App) WithDocument(documentID string) *App {
	a.initialDocument = documentID
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("ocrchat"),
		a.documentsView.Init(),
	}
	if a.initialDocument != "" {
		cmds = append(cmds, a.openDocument(a.initialDocument))
	}
	return tea.Batch(cmds...)
}

// openDocument switches to the session view for documentID.
func (a *App) openDocument(documentID string) tea.Cmd {
	a.currentView = messages.ViewSession
	a.statusBar.SetError(nil)
	a.statusBar.SetHints(a.keymap.TextHelp())
	return tea.Batch(a.sessionView.Open(documentID), a.sessionView.Init())
}

// showDocuments switches back to the list and refreshes it.
func (a *App) showDocuments() tea.Cmd {
	a.sessionView.Close()
	a.currentView = messages.ViewDocuments
	a.statusBar.Clear()
	return a.documentsView.Reload()
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			a.sessionView.Close()
			return a, tea.Quit
		}

		switch a.currentView {
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewSession:
			a.sessionView, cmd = a.sessionView.Update(msg)
			a.syncStatus()
		}
		return a, cmd

	case messages.ViewChanged:
		if msg.View == messages.ViewDocuments {
			return a, a.showDocuments()
		}
		a.currentView = msg.View
		return a, nil

	case messages.DocumentSelected:
		return a, a.openDocument(msg.DocumentID)

	case messages.DocumentsLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.DocumentDeleted:
		if a.currentView == messages.ViewSession && msg.DocumentID == a.sessionView.DocumentID() {
			a.sessionView.Close()
			a.currentView = messages.ViewDocuments
			a.statusBar.Clear()
		}
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.SessionStarted, messages.SessionUpdated, messages.AnswerReceived:
		a.sessionView, cmd = a.sessionView.Update(msg)
		a.syncStatus()
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.statusBar.SetError(msg.Err)
		switch a.currentView {
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewSession:
			a.sessionView, cmd = a.sessionView.Update(msg)
		}
		return a, cmd

	case messages.Quit:
		a.sessionView.Close()
		return a, tea.Quit
	}

	// Forward other messages (cursor blink) to the active view
	if a.currentView == messages.ViewSession {
		a.sessionView, cmd = a.sessionView.Update(msg)
	}
	return a, cmd
}

// syncStatus mirrors the session's connection and focus into the status bar.
func (a *App) syncStatus() {
	if a.currentView != messages.ViewSession || !a.sessionView.Active() {
		a.statusBar.ClearConnection()
		return
	}
	a.statusBar.SetConnection(a.sessionView.Connection())
	if a.sessionView.Focus() == session.FocusChat {
		a.statusBar.SetHints(a.keymap.ChatHelp())
	} else {
		a.statusBar.SetHints(a.keymap.TextHelp())
	}
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewSession:
		body = a.sessionView.View()
	default:
		body = a.documentsView.View()
	}
	return body + "\n" + a.statusBar.View()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	a.sessionView.Shutdown()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions, leaving a row for the status bar.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.documentsView.SetDimensions(width, height-1)
	a.sessionView.SetDimensions(width, height-1)
	a.statusBar.SetWidth(width)
}
