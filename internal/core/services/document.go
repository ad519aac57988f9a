package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driven"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driving"
	"github.com/ocrchat/ocrchat-cli/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// sniffLen is the number of bytes http.DetectContentType looks at.
const sniffLen = 512

// DocumentService manages documents over the request/response API and
// mirrors fetched snapshots into an optional local cache.
type DocumentService struct {
	api   driven.DocumentAPI
	store driven.SnapshotStore
}

// NewDocumentService creates a document service. store may be nil when
// caching is disabled.
func NewDocumentService(api driven.DocumentAPI, store driven.SnapshotStore) *DocumentService {
	return &DocumentService{api: api, store: store}
}

// List returns all documents, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.api.List(ctx)
}

// Get fetches the current snapshot and refreshes the cache.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Snapshot, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	snap, err := s.api.Fetch(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.forget(ctx, documentID)
		}
		return nil, err
	}
	s.cache(ctx, snap)
	return snap, nil
}

// Upload validates a local file and sends it for OCR.
// Type and size are checked before any network call.
func (s *DocumentService) Upload(ctx context.Context, path string) (*domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	head = head[:n]

	upload := domain.Upload{
		Filename:    filepath.Base(path),
		ContentType: detectContentType(head),
		Size:        info.Size(),
		Content:     io.MultiReader(bytes.NewReader(head), f),
	}
	if err := domain.ValidateUpload(upload); err != nil {
		return nil, err
	}

	logger.Debug("uploading %s (%s, %s)", upload.Filename, upload.ContentType, domain.FormatSize(upload.Size))
	return s.api.Upload(ctx, upload)
}

// Delete removes a document remotely and drops its cache entry.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if err := s.api.Delete(ctx, documentID); err != nil {
		return err
	}
	s.forget(ctx, documentID)
	return nil
}

// Download streams the original upload of a document into w.
func (s *DocumentService) Download(ctx context.Context, documentID string, w io.Writer) error {
	if strings.TrimSpace(documentID) == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	return s.api.Download(ctx, documentID, w)
}

// History returns the documents known to the local cache.
func (s *DocumentService) History(ctx context.Context) ([]domain.Document, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.List(ctx)
}

// Cached returns the last snapshot stored for a document.
func (s *DocumentService) Cached(ctx context.Context, documentID string) (*domain.Snapshot, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: local cache is disabled", domain.ErrNotFound)
	}
	return s.store.Get(ctx, documentID)
}

func (s *DocumentService) cache(ctx context.Context, snap *domain.Snapshot) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, snap); err != nil {
		logger.Warn("cache snapshot %s: %v", snap.Document.ID, err)
	}
}

func (s *DocumentService) forget(ctx context.Context, documentID string) {
	if s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, documentID); err != nil {
		logger.Warn("evict snapshot %s: %v", documentID, err)
	}
}

// detectContentType sniffs the MIME type and strips parameters.
func detectContentType(head []byte) string {
	ct := http.DetectContentType(head)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}
