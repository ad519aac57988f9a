package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driven"
)

// --- Fake channel transport ---

type emitted struct {
	Event   string
	Payload any
}

// fakeTransport implements driven.ChannelTransport in memory.
// Tests push inbound events with Deliver and simulate drops with Drop.
type fakeTransport struct {
	mu           sync.Mutex
	handlers     map[string]driven.EventHandler
	onConnect    []func()
	onDisconnect []func(error)
	connected    bool
	emits        []emitted
	connectErrs  []error
	emitErr      error
	connects     int
	disconnects  int
}

var _ driven.ChannelTransport = (*fakeTransport)(nil)

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[string]driven.EventHandler)}
}

// failConnects queues errors returned by the next Connect calls.
func (f *fakeTransport) failConnects(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectErrs = append(f.connectErrs, errs...)
}

func (f *fakeTransport) Connect(_ context.Context) error {
	f.mu.Lock()
	f.connects++
	if len(f.connectErrs) > 0 {
		err := f.connectErrs[0]
		f.connectErrs = f.connectErrs[1:]
		if err != nil {
			f.mu.Unlock()
			return err
		}
	}
	f.connected = true
	hooks := append([]func(){}, f.onConnect...)
	f.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return nil
}

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnects++
	return nil
}

func (f *fakeTransport) Emit(_ context.Context, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return domain.ErrNotConnected
	}
	if f.emitErr != nil {
		return f.emitErr
	}
	f.emits = append(f.emits, emitted{Event: event, Payload: payload})
	return nil
}

func (f *fakeTransport) On(event string, handler driven.EventHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = handler
}

func (f *fakeTransport) OnConnect(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onConnect = append(f.onConnect, fn)
}

func (f *fakeTransport) OnDisconnect(fn func(error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onDisconnect = append(f.onDisconnect, fn)
}

func (f *fakeTransport) State() domain.ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connected {
		return domain.ConnectionConnected
	}
	return domain.ConnectionDisconnected
}

// Deliver invokes the handler registered for event with a JSON payload.
func (f *fakeTransport) Deliver(event string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	h := f.handlers[event]
	f.mu.Unlock()
	if h != nil {
		h(data)
	}
}

// Drop simulates an unexpected connection loss.
func (f *fakeTransport) Drop(err error) {
	f.mu.Lock()
	f.connected = false
	hooks := append([]func(error){}, f.onDisconnect...)
	f.mu.Unlock()
	for _, fn := range hooks {
		fn(err)
	}
}

func (f *fakeTransport) Emitted(event string) []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emitted
	for _, e := range f.emits {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeTransport) EventLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.emits))
	for i, e := range f.emits {
		out[i] = e.Event
	}
	return out
}

func (f *fakeTransport) Connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

func (f *fakeTransport) Disconnects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

// --- Fake snapshot loader ---

// fakeLoader returns queued snapshots in order, repeating the last one.
type fakeLoader struct {
	mu        sync.Mutex
	snapshots []domain.Snapshot
	err       error
	calls     int
	block     chan struct{}
}

func (l *fakeLoader) Fetch(ctx context.Context, _ string) (*domain.Snapshot, error) {
	l.mu.Lock()
	l.calls++
	block := l.block
	l.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	snap := l.snapshots[0]
	if len(l.snapshots) > 1 {
		l.snapshots = l.snapshots[1:]
	}
	return &snap, nil
}

func (l *fakeLoader) set(snaps ...domain.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshots = snaps
	l.err = nil
}

func (l *fakeLoader) fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *fakeLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func snapshotOf(status domain.DocumentStatus, text string, messages ...domain.Message) domain.Snapshot {
	return domain.Snapshot{
		Document: domain.Document{
			ID:            docX,
			OriginalName:  "receipt.png",
			Status:        status,
			ExtractedText: text,
		},
		Conversation: domain.Conversation{
			ID:         "conv-1",
			DocumentID: docX,
			Messages:   messages,
		},
	}
}
