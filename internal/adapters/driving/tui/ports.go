// Package tui provides an interactive terminal user interface for ocrchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Documents lists, fetches and deletes documents.
	Documents driving.DocumentService

	// Sessions opens live document sessions.
	Sessions driving.SessionFactory
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(documents driving.DocumentService, sessions driving.SessionFactory) *Ports {
	return &Ports{
		Documents: documents,
		Sessions:  sessions,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	if p.Sessions == nil {
		return ErrMissingSessionFactory
	}
	return nil
}
