package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

// documentDTO is the wire form of a document.
type documentDTO struct {
	ID            string            `json:"id"`
	OriginalName  string            `json:"originalName"`
	StorageURL    string            `json:"storageUrl"`
	Status        string            `json:"status"`
	ExtractedText *string           `json:"extractedText"`
	FileSize      int64             `json:"fileSize"`
	CreatedAt     time.Time         `json:"createdAt"`
	Conversations []conversationDTO `json:"conversations"`
}

type conversationDTO struct {
	ID         string       `json:"id"`
	DocumentID string       `json:"documentId"`
	CreatedAt  time.Time    `json:"createdAt"`
	Messages   []messageDTO `json:"messages"`
}

type messageDTO struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (d documentDTO) toDomain() (domain.Document, error) {
	status := domain.DocumentStatus(d.Status)
	if !status.IsValid() {
		return domain.Document{}, fmt.Errorf("%w: document %s has unknown status %q", domain.ErrServer, d.ID, d.Status)
	}
	doc := domain.Document{
		ID:           d.ID,
		OriginalName: d.OriginalName,
		StorageURL:   d.StorageURL,
		Status:       status,
		FileSize:     d.FileSize,
		CreatedAt:    d.CreatedAt,
	}
	if d.ExtractedText != nil && status == domain.StatusCompleted {
		doc.ExtractedText = *d.ExtractedText
	}
	return doc, nil
}

// toSnapshot uses the first conversation. The service keeps one
// conversation per document.
func (d documentDTO) toSnapshot() (*domain.Snapshot, error) {
	doc, err := d.toDomain()
	if err != nil {
		return nil, err
	}
	snap := &domain.Snapshot{
		Document:     doc,
		Conversation: domain.Conversation{DocumentID: doc.ID},
	}
	if len(d.Conversations) == 0 {
		return snap, nil
	}

	conv := d.Conversations[0]
	snap.Conversation.ID = conv.ID
	snap.Conversation.CreatedAt = conv.CreatedAt
	for i, m := range conv.Messages {
		role := domain.Role(m.Role)
		if !role.IsValid() {
			return nil, fmt.Errorf("%w: message %d has unknown role %q", domain.ErrServer, i, m.Role)
		}
		id := m.ID
		if id == "" {
			id = conv.ID + ":" + strconv.Itoa(i)
		}
		snap.Conversation.Messages = append(snap.Conversation.Messages, domain.Message{
			ID:        id,
			Role:      role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return snap, nil
}

// Fetch returns a document together with its conversation.
func (c *Client) Fetch(ctx context.Context, documentID string) (*domain.Snapshot, error) {
	var dto documentDTO
	if err := c.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(documentID), nil, "", &dto); err != nil {
		return nil, fmt.Errorf("fetch document %s: %w", documentID, err)
	}
	return dto.toSnapshot()
}

// List returns the caller's documents.
func (c *Client) List(ctx context.Context) ([]domain.Document, error) {
	var dtos []documentDTO
	if err := c.do(ctx, http.MethodGet, "/documents", nil, "", &dtos); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs := make([]domain.Document, 0, len(dtos))
	for _, d := range dtos {
		doc, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Upload posts the file as multipart field "file".
func (c *Client) Upload(ctx context.Context, upload domain.Upload) (*domain.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Filename))
	header.Set("Content-Type", upload.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return nil, fmt.Errorf("read %s: %w", upload.Filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	var dto documentDTO
	if err := c.do(ctx, http.MethodPost, "/documents/upload", &buf, mw.FormDataContentType(), &dto); err != nil {
		return nil, fmt.Errorf("upload %s: %w", upload.Filename, err)
	}
	doc, err := dto.toDomain()
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete removes a document.
func (c *Client) Delete(ctx context.Context, documentID string) error {
	if err := c.do(ctx, http.MethodDelete, "/documents/"+url.PathEscape(documentID), nil, "", nil); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	return nil
}

// Download streams the original file of a document into w.
func (c *Client) Download(ctx context.Context, documentID string, w io.Writer) error {
	resp, err := c.send(ctx, http.MethodGet, "/documents/"+url.PathEscape(documentID)+"/download", nil, "", "*/*")
	if err != nil {
		return fmt.Errorf("download document %s: %w", documentID, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: download document %s: %v", domain.ErrConnectivity, documentID, err)
	}
	return nil
}
