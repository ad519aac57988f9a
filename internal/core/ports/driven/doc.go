// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ChannelTransport: Bidirectional push channel (websocket)
//   - ChannelFactory: Creates one channel per document session
//   - SnapshotLoader: Fetches authoritative document snapshots
//   - DocumentAPI: Request/response document operations
//   - CredentialProvider: Supplies the bearer token
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SnapshotStore: Local snapshot cache. Without it, history is unavailable offline.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
