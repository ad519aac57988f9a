package driven

import (
	"context"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

// EventHandler receives the raw JSON payload of a named push event.
type EventHandler func(payload []byte)

// ChannelTransport is a bidirectional push channel to the document service.
//
// Handlers registered with On, OnConnect and OnDisconnect are invoked from
// the transport's read goroutine, one at a time, in arrival order.
type ChannelTransport interface {
	// Connect opens the channel. It returns an error wrapping
	// domain.ErrAuth if the credential is rejected and
	// domain.ErrConnectivity for transient failures.
	// OnConnect handlers complete before any event is delivered.
	Connect(ctx context.Context) error

	// Disconnect closes the channel. Idempotent.
	// OnDisconnect is not invoked for an intentional disconnect.
	Disconnect() error

	// Emit sends a named event with a JSON-encodable payload.
	// Returns domain.ErrNotConnected when the channel is closed.
	Emit(ctx context.Context, event string, payload any) error

	// On registers the handler for an inbound event name.
	On(event string, handler EventHandler)

	// OnConnect registers a callback run after every successful connect.
	OnConnect(fn func())

	// OnDisconnect registers a callback run when the channel drops unexpectedly.
	OnDisconnect(fn func(err error))

	// State returns the current connection state.
	State() domain.ConnectionState
}

// ChannelFactory creates channels. Each document session owns one.
type ChannelFactory interface {
	NewChannel() ChannelTransport
}
