package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	errors := []error{
		ErrMissingDocumentService,
		ErrMissingSessionFactory,
		ErrInvalidPorts,
	}

	// Ensure all errors are unique
	seen := make(map[string]bool)
	for _, err := range errors {
		msg := err.Error()
		assert.False(t, seen[msg], "duplicate error message: %s", msg)
		seen[msg] = true
	}
}

func TestErrMissingDocumentService_Message(t *testing.T) {
	assert.Contains(t, ErrMissingDocumentService.Error(), "document service")
}

func TestErrMissingSessionFactory_Message(t *testing.T) {
	assert.Contains(t, ErrMissingSessionFactory.Error(), "session factory")
}

func TestErrInvalidPorts_Message(t *testing.T) {
	assert.Contains(t, ErrInvalidPorts.Error(), "invalid ports")
}
