// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// A DocumentSession owns one document's live state: the status reducer,
// the chat manager, the room subscription and the reconnection
// controller all run behind a single per-session goroutine.
package services
