package mcp

import (
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Documents lists and fetches documents.
	Documents driving.DocumentService

	// Sessions opens live document sessions for ask_document.
	Sessions driving.SessionFactory
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	// Sessions is optional; without it ask_document reports ErrAskUnavailable
	return nil
}
