// Package domain defines the core business entities for ocrchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded document and its OCR lifecycle status
//   - Conversation / Message: The question/answer transcript of a document
//   - Event: The closed set of push events delivered over the channel
//   - SessionView: A read-only copy of one live document session
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
