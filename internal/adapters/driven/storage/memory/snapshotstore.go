package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is an in-memory implementation of driven.SnapshotStore.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.Snapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string]domain.Snapshot),
	}
}

// Save stores or replaces a snapshot.
func (s *SnapshotStore) Save(_ context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil || snapshot.Document.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.Document.ID] = cloneSnapshot(*snapshot)
	return nil
}

// Get retrieves a snapshot by document ID.
func (s *SnapshotStore) Get(_ context.Context, documentID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneSnapshot(snap)
	return &out, nil
}

// List returns cached documents, newest first.
func (s *SnapshotStore) List(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		docs = append(docs, snap.Document)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

// Delete removes a snapshot.
func (s *SnapshotStore) Delete(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, documentID)
	return nil
}

func cloneSnapshot(snap domain.Snapshot) domain.Snapshot {
	snap.Conversation.Messages = append([]domain.Message(nil), snap.Conversation.Messages...)
	return snap
}
