package mcp

import (
	"context"
	"io"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driving"
)

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	snapshot  *domain.Snapshot
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Snapshot, error) {
	return m.snapshot, m.err
}

func (m *mockDocumentService) Upload(_ context.Context, _ string) (*domain.Document, error) {
	return nil, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) Download(_ context.Context, _ string, _ io.Writer) error {
	return m.err
}

func (m *mockDocumentService) History(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Cached(_ context.Context, _ string) (*domain.Snapshot, error) {
	return m.snapshot, m.err
}

// mockSession is a mock implementation of driving.DocumentSession whose
// document is already settled in the given view.
type mockSession struct {
	view      domain.SessionView
	startErr  error
	waitErr   error
	answer    string
	askErr    error
	asked     []string
	closed    bool
	updates   chan domain.SessionView
	deletedCh chan struct{}
}

func newMockSession(status domain.DocumentStatus) *mockSession {
	return &mockSession{
		view: domain.SessionView{
			Loaded:   true,
			Document: domain.Document{ID: "doc-1", Status: status},
		},
		updates:   make(chan domain.SessionView),
		deletedCh: make(chan struct{}),
	}
}

func (m *mockSession) Start(_ context.Context) error { return m.startErr }

func (m *mockSession) Close() error {
	m.closed = true
	return nil
}

func (m *mockSession) View() domain.SessionView { return m.view }

func (m *mockSession) Updates() <-chan domain.SessionView { return m.updates }

func (m *mockSession) Deleted() <-chan struct{} { return m.deletedCh }

func (m *mockSession) WaitSettled(_ context.Context) (domain.SessionView, error) {
	return m.view, m.waitErr
}

func (m *mockSession) Submit(_ string) (<-chan domain.AskResult, error) {
	return nil, m.askErr
}

func (m *mockSession) Ask(_ context.Context, question string) (domain.Message, error) {
	m.asked = append(m.asked, question)
	if m.askErr != nil {
		return domain.Message{}, m.askErr
	}
	return domain.Message{Role: domain.RoleAssistant, Content: m.answer}, nil
}

// mockSessionFactory hands out a single prepared session.
type mockSessionFactory struct {
	session *mockSession
	opened  []string
}

func (f *mockSessionFactory) Open(documentID string) driving.DocumentSession {
	f.opened = append(f.opened, documentID)
	return f.session
}
