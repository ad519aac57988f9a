package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui/messages"
	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

func newTestApp(t *testing.T) (*App, *MockSessionFactory) {
	t.Helper()
	sessions := &MockSessionFactory{}
	app, err := NewApp(NewPorts(&MockDocumentService{}, sessions))
	require.NoError(t, err)
	return app, sessions
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)

	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	assert.False(t, app.Ready())
	assert.NoError(t, app.Err())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Documents: &MockDocumentService{}})

	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrMissingSessionFactory)
	assert.Contains(t, err.Error(), "creating app")
}

func TestNewApp_NilPorts(t *testing.T) {
	app, err := NewApp(nil)

	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrInvalidPorts)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := app.WithContext(ctx)

	assert.Same(t, app, result)
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app, sessions := newTestApp(t)

	cmd := app.Init()

	assert.NotNil(t, cmd)
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	assert.Empty(t, sessions.Opened)
}

func TestApp_WithDocument_OpensSession(t *testing.T) {
	app, sessions := newTestApp(t)

	app.WithDocument("doc-1")
	cmd := app.Init()

	assert.NotNil(t, cmd)
	assert.Equal(t, messages.ViewSession, app.CurrentView())
	assert.Equal(t, []string{"doc-1"}, sessions.Opened)
}

func TestApp_WindowSize(t *testing.T) {
	app, _ := newTestApp(t)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Nil(t, cmd)
	assert.Same(t, app, model)
	assert.True(t, app.Ready())
	assert.Equal(t, 120, app.width)
	assert.Equal(t, 40, app.height)
}

func TestApp_View_NotReady(t *testing.T) {
	app, _ := newTestApp(t)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_View_IncludesStatusBar(t *testing.T) {
	app, _ := newTestApp(t)
	app.SetDimensions(100, 30)

	view := app.View()

	assert.Contains(t, view, "Documents")
	assert.Contains(t, view, "Ready")
}

func TestApp_DocumentSelected(t *testing.T) {
	app, sessions := newTestApp(t)
	app.SetDimensions(100, 30)

	_, cmd := app.Update(messages.DocumentSelected{DocumentID: "doc-7"})

	assert.NotNil(t, cmd)
	assert.Equal(t, messages.ViewSession, app.CurrentView())
	assert.Equal(t, []string{"doc-7"}, sessions.Opened)
}

func TestApp_ViewChanged_ToDocuments(t *testing.T) {
	app, sessions := newTestApp(t)
	app.SetDimensions(100, 30)
	app.Update(messages.DocumentSelected{DocumentID: "doc-1"})
	sess := sessions.Session
	app.Update(messages.SessionStarted{DocumentID: "doc-1", Session: sess})

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewDocuments})

	assert.NotNil(t, cmd)
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	assert.Eventually(t, sess.Closed, timeout, tick)
}

func TestApp_SessionStarted_UpdatesStatus(t *testing.T) {
	app, sessions := newTestApp(t)
	app.SetDimensions(100, 30)
	app.Update(messages.DocumentSelected{DocumentID: "doc-1"})

	_, cmd := app.Update(messages.SessionStarted{DocumentID: "doc-1", Session: sessions.Session})

	assert.NotNil(t, cmd)
	state, live := app.statusBar.Connection()
	assert.True(t, live)
	assert.Equal(t, domain.ConnectionConnected, state)
	assert.Contains(t, app.View(), "connected")
}

func TestApp_DocumentDeleted_CurrentSession(t *testing.T) {
	app, sessions := newTestApp(t)
	app.SetDimensions(100, 30)
	app.Update(messages.DocumentSelected{DocumentID: "doc-1"})
	app.Update(messages.SessionStarted{DocumentID: "doc-1", Session: sessions.Session})

	_, cmd := app.Update(messages.DocumentDeleted{DocumentID: "doc-1"})

	assert.NotNil(t, cmd)
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	assert.Eventually(t, sessions.Session.Closed, timeout, tick)
	assert.Contains(t, app.View(), "was deleted")
}

func TestApp_DocumentDeleted_OtherDocument(t *testing.T) {
	app, sessions := newTestApp(t)
	app.SetDimensions(100, 30)
	app.Update(messages.DocumentSelected{DocumentID: "doc-1"})
	app.Update(messages.SessionStarted{DocumentID: "doc-1", Session: sessions.Session})

	app.Update(messages.DocumentDeleted{DocumentID: "doc-2"})

	assert.Equal(t, messages.ViewSession, app.CurrentView())
	assert.False(t, sessions.Session.Closed())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app, _ := newTestApp(t)
	app.SetDimensions(100, 30)
	testErr := errors.New("boom")

	app.Update(messages.ErrorOccurred{Err: testErr})

	assert.Equal(t, testErr, app.Err())
	assert.Contains(t, app.View(), "boom")
}

func TestApp_Quit(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_CtrlC(t *testing.T) {
	app, sessions := newTestApp(t)
	app.SetDimensions(100, 30)
	app.Update(messages.DocumentSelected{DocumentID: "doc-1"})
	app.Update(messages.SessionStarted{DocumentID: "doc-1", Session: sessions.Session})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Eventually(t, sessions.Session.Closed, timeout, tick)
}

func TestApp_KeyRoutedToDocuments(t *testing.T) {
	app, _ := newTestApp(t)
	app.SetDimensions(100, 30)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.Quit{}, cmd())
}
