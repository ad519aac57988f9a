package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "ocrchat://documents/doc-456",
			expected: "doc-456",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/doc-456",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "ocrchat://documents/doc-456/extra",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractDocumentID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns documents successfully", func(t *testing.T) {
		docs := &mockDocumentService{documents: []domain.Document{
			{ID: "doc-1", OriginalName: "invoice.pdf", Status: domain.StatusProcessing},
		}}
		server := newTestServer(t, docs, nil)

		req := makeReadResourceRequest("ocrchat://documents")
		result, err := server.handleDocumentsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "doc-1")
		assert.Contains(t, result.Contents[0].Text, "invoice.pdf")
		assert.Contains(t, result.Contents[0].Text, "PROCESSING")
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{err: errors.New("api down")}, nil)

		req := makeReadResourceRequest("ocrchat://documents")
		_, err := server.handleDocumentsResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleDocumentTextResource(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{}, nil)

		req := makeReadResourceRequest("ocrchat://invalid/uri")
		_, err := server.handleDocumentTextResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("missing document returns not found", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{err: domain.ErrNotFound}, nil)

		req := makeReadResourceRequest("ocrchat://documents/nope")
		_, err := server.handleDocumentTextResource(ctx, req)

		require.Error(t, err)
		assert.NotContains(t, err.Error(), "getting document")
	})

	t.Run("returns extracted text", func(t *testing.T) {
		docs := &mockDocumentService{snapshot: &domain.Snapshot{
			Document: domain.Document{ID: "doc-1", Status: domain.StatusCompleted, ExtractedText: "total: 42"},
		}}
		server := newTestServer(t, docs, nil)

		req := makeReadResourceRequest("ocrchat://documents/doc-1")
		result, err := server.handleDocumentTextResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "total: 42", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("processing document", func(t *testing.T) {
		docs := &mockDocumentService{snapshot: &domain.Snapshot{
			Document: domain.Document{ID: "doc-1", Status: domain.StatusProcessing},
		}}
		server := newTestServer(t, docs, nil)

		req := makeReadResourceRequest("ocrchat://documents/doc-1")
		result, err := server.handleDocumentTextResource(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, "[OCR still processing]", result.Contents[0].Text)
	})

	t.Run("failed document", func(t *testing.T) {
		docs := &mockDocumentService{snapshot: &domain.Snapshot{
			Document: domain.Document{ID: "doc-1", Status: domain.StatusFailed, FailureReason: "blurry"},
		}}
		server := newTestServer(t, docs, nil)

		req := makeReadResourceRequest("ocrchat://documents/doc-1")
		result, err := server.handleDocumentTextResource(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, "[OCR failed: blurry]", result.Contents[0].Text)
	})

	t.Run("returns error on service failure", func(t *testing.T) {
		server := newTestServer(t, &mockDocumentService{err: errors.New("api down")}, nil)

		req := makeReadResourceRequest("ocrchat://documents/doc-1")
		_, err := server.handleDocumentTextResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting document")
	})
}
