package tui

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driving"
)

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	ListFunc   func(ctx context.Context) ([]domain.Document, error)
	DeleteFunc func(ctx context.Context, documentID string) error
}

func (m *MockDocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []domain.Document{}, nil
}

func (m *MockDocumentService) Get(_ context.Context, _ string) (*domain.Snapshot, error) {
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) Upload(_ context.Context, _ string) (*domain.Document, error) {
	return nil, errors.New("not implemented")
}

func (m *MockDocumentService) Delete(ctx context.Context, documentID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, documentID)
	}
	return nil
}

func (m *MockDocumentService) Download(_ context.Context, _ string, _ io.Writer) error {
	return errors.New("not implemented")
}

func (m *MockDocumentService) History(_ context.Context) ([]domain.Document, error) {
	return nil, nil
}

func (m *MockDocumentService) Cached(_ context.Context, _ string) (*domain.Snapshot, error) {
	return nil, domain.ErrNotFound
}

// MockSession implements driving.DocumentSession for testing.
type MockSession struct {
	mu      sync.Mutex
	view    domain.SessionView
	updates chan domain.SessionView
	closed  bool
}

func NewMockSession(id string, status domain.DocumentStatus) *MockSession {
	return &MockSession{
		view: domain.SessionView{
			Document:   domain.Document{ID: id, OriginalName: id + ".pdf", Status: status},
			Loaded:     true,
			Connection: domain.ConnectionConnected,
		},
		updates: make(chan domain.SessionView, 1),
	}
}

func (m *MockSession) Start(_ context.Context) error { return nil }

func (m *MockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockSession) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockSession) View() domain.SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

func (m *MockSession) Updates() <-chan domain.SessionView { return m.updates }

func (m *MockSession) Deleted() <-chan struct{} { return make(chan struct{}) }

func (m *MockSession) Submit(_ string) (<-chan domain.AskResult, error) {
	return nil, domain.ErrInvariantViolation
}

func (m *MockSession) WaitSettled(_ context.Context) (domain.SessionView, error) {
	return m.View(), nil
}

func (m *MockSession) Ask(_ context.Context, _ string) (domain.Message, error) {
	return domain.Message{}, domain.ErrInvariantViolation
}

// MockSessionFactory implements driving.SessionFactory for testing.
type MockSessionFactory struct {
	Session *MockSession
	Opened  []string
}

func (m *MockSessionFactory) Open(documentID string) driving.DocumentSession {
	m.Opened = append(m.Opened, documentID)
	if m.Session == nil {
		m.Session = NewMockSession(documentID, domain.StatusProcessing)
	}
	return m.Session
}

const (
	timeout = time.Second
	tick    = 10 * time.Millisecond
)
