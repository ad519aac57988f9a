// Package mcp provides an MCP (Model Context Protocol) server adapter for ocrchat.
// It lets AI assistants list OCR'd documents, read their extracted text and
// ask questions about them.
package mcp

import "errors"

var (
	// ErrMissingDocumentService is returned when the document service is not provided.
	ErrMissingDocumentService = errors.New("mcp: document service is required")

	// ErrAskUnavailable is returned by ask_document when no session factory is configured.
	ErrAskUnavailable = errors.New("mcp: asking questions is not available")
)
