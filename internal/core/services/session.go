package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driven"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driving"
	"github.com/ocrchat/ocrchat-cli/internal/logger"
)

// Ensure Session implements the interface.
var _ driving.DocumentSession = (*Session)(nil)

// releaseTimeout bounds the leave_room emit during Close.
const releaseTimeout = 5 * time.Second

// SessionConfig tunes a document session.
type SessionConfig struct {
	// AskTimeout bounds the wait for an llm:answer.
	AskTimeout time.Duration

	// ReconnectBaseDelay is the first reconnect delay.
	ReconnectBaseDelay time.Duration

	// ReconnectMaxDelay caps reconnect delays.
	ReconnectMaxDelay time.Duration
}

// SessionConfigFromSettings derives session tuning from client settings.
func SessionConfigFromSettings(s domain.ClientSettings) SessionConfig {
	return SessionConfig{
		AskTimeout:         s.AskTimeout,
		ReconnectBaseDelay: s.ReconnectBaseDelay,
		ReconnectMaxDelay:  s.ReconnectMaxDelay,
	}
}

// Session is the live state of one document.
//
// A single goroutine owns the reducer state and the chat manager. Transport
// callbacks, timers and snapshot results are posted to it through a FIFO
// mailbox, so no two events are ever applied concurrently and events from
// one connection are applied in delivery order.
type Session struct {
	documentID string
	loader     driven.SnapshotLoader
	transport  driven.ChannelTransport
	store      driven.SnapshotStore
	cfg        SessionConfig
	log        *logger.Logger

	rooms *RoomSubscription
	recon *ReconnectController

	// Owned by the loop goroutine.
	state          DocumentState
	chat           *ChatManager
	conversationID string
	connState      domain.ConnectionState
	fatal          error
	waiters        map[string]chan domain.AskResult
	timers         map[string]*time.Timer

	mbox    *mailbox
	stop    chan struct{}
	done    chan struct{}
	loading atomic.Bool // set once Start begins the initial fetch
	fetches sync.WaitGroup

	viewMu  sync.RWMutex
	view    domain.SessionView
	updates chan domain.SessionView

	deleted     chan struct{}
	deletedOnce sync.Once
	settled     chan struct{}
	settledOnce sync.Once
	failed      chan struct{}
	failedOnce  sync.Once

	ctx       context.Context
	cancel    context.CancelFunc
	started   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewSession creates a session for a document. The transport must be
// dedicated to this session. store may be nil.
func NewSession(
	documentID string,
	loader driven.SnapshotLoader,
	transport driven.ChannelTransport,
	store driven.SnapshotStore,
	cfg SessionConfig,
) *Session {
	if cfg.AskTimeout <= 0 {
		cfg.AskTimeout = domain.DefaultAskTimeout
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = domain.DefaultReconnectBaseDelay
	}
	if cfg.ReconnectMaxDelay < cfg.ReconnectBaseDelay {
		cfg.ReconnectMaxDelay = cfg.ReconnectBaseDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		documentID: documentID,
		loader:     loader,
		transport:  transport,
		store:      store,
		cfg:        cfg,
		log:        logger.With("document", documentID),
		rooms:      NewRoomSubscription(documentID, transport),
		state:      NewDocumentState(documentID),
		chat:       NewChatManager(documentID),
		waiters:    make(map[string]chan domain.AskResult),
		timers:     make(map[string]*time.Timer),
		mbox:       newMailbox(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		updates:    make(chan domain.SessionView, 1),
		deleted:    make(chan struct{}),
		settled:    make(chan struct{}),
		failed:     make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.recon = NewReconnectController(
		transport,
		NewBackoff(cfg.ReconnectBaseDelay, cfg.ReconnectMaxDelay),
		func(st domain.ConnectionState) { s.post(func() { s.setConnection(st) }) },
		func(err error) { s.post(func() { s.fail(err) }) },
	)
	s.recon.log = s.log.With("component", "reconnect")
	s.rooms.log = s.log.With("room", s.rooms.Room())
	s.view = s.buildView()

	go s.run()
	return s
}

// Start subscribes to the document room, loads the snapshot and seeds
// the state. Events that arrive before the snapshot are buffered.
//
// A rejected credential or a missing document fails Start; a network
// failure on connect is retried in the background.
func (s *Session) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: session already started", domain.ErrInvariantViolation)
	}

	for _, name := range domain.InboundEvents {
		s.transport.On(name, s.handlerFor(name))
	}
	s.transport.OnConnect(s.onConnect)
	s.transport.OnDisconnect(s.onDisconnect)

	s.log.Debug("connecting")
	if err := s.recon.Start(ctx); err != nil {
		_ = s.Close()
		return fmt.Errorf("connect: %w", err)
	}

	// Connects from here on may land after the initial fetch has read
	// the server state, so each one triggers a refetch. This covers the
	// first background connect when the synchronous one failed.
	s.loading.Store(true)
	snap, err := s.fetch(ctx)
	if err != nil {
		_ = s.Close()
		return fmt.Errorf("load document %s: %w", s.documentID, err)
	}
	if !s.call(func() { s.applySnapshot(*snap) }) {
		return domain.ErrSessionClosed
	}
	return nil
}

// Close leaves the room, disconnects and stops the session. Pending
// questions resolve with domain.ErrSessionClosed. Idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.log.Debug("closing")
		s.cancel()
		s.recon.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		s.closeErr = s.rooms.Release(ctx)
		cancel()

		s.call(s.shutdown)
		s.mbox.close()
		close(s.stop)
		<-s.done
		s.fetches.Wait()
		close(s.updates)
	})
	return s.closeErr
}

// View returns a copy of the current state.
func (s *Session) View() domain.SessionView {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return copyView(s.view)
}

// Updates delivers the latest view after each change.
func (s *Session) Updates() <-chan domain.SessionView {
	return s.updates
}

// Deleted is closed when the document is deleted externally.
func (s *Session) Deleted() <-chan struct{} {
	return s.deleted
}

// Submit asks a question without waiting for the answer.
func (s *Session) Submit(question string) (<-chan domain.AskResult, error) {
	var (
		ch  chan domain.AskResult
		err error
	)
	ok := s.call(func() {
		ch, err = s.submit(question)
	})
	if !ok {
		return nil, domain.ErrSessionClosed
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Ask asks a question and waits for the answer, the ask timeout, or ctx.
func (s *Session) Ask(ctx context.Context, question string) (domain.Message, error) {
	ch, err := s.Submit(question)
	if err != nil {
		return domain.Message{}, err
	}
	select {
	case res := <-ch:
		return res.Answer, res.Err
	case <-ctx.Done():
		return domain.Message{}, ctx.Err()
	}
}

// WaitSettled blocks until processing has finished and returns the view,
// whose status is then Completed or Failed.
func (s *Session) WaitSettled(ctx context.Context) (domain.SessionView, error) {
	select {
	case <-s.settled:
		return s.View(), nil
	case <-s.deleted:
		return s.View(), domain.ErrDocumentDeleted
	case <-s.failed:
		v := s.View()
		return v, v.Err
	case <-s.done:
		return s.View(), domain.ErrSessionClosed
	case <-ctx.Done():
		return s.View(), ctx.Err()
	}
}

// --- loop plumbing ---

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-s.mbox.signal:
			for _, fn := range s.mbox.drain() {
				fn()
			}
		}
	}
}

func (s *Session) post(fn func()) bool {
	return s.mbox.post(fn)
}

// call runs fn on the loop and waits for it. It returns false if the
// session stopped before fn ran.
func (s *Session) call(fn func()) bool {
	ran := make(chan struct{})
	if !s.post(func() {
		defer close(ran)
		fn()
	}) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-s.done:
		return false
	}
}

// --- transport callbacks (transport goroutine) ---

func (s *Session) handlerFor(name string) driven.EventHandler {
	return func(payload []byte) {
		ev, err := domain.DecodeEvent(name, payload)
		if err != nil {
			s.log.Debug("dropping event: %v", err)
			return
		}
		s.post(func() { s.handleEvent(ev) })
	}
}

func (s *Session) onConnect() {
	if err := s.rooms.OnConnected(s.ctx); err != nil {
		s.log.Warn("room join failed: %v", err)
	}
	if s.loading.Load() {
		s.fetches.Add(1)
		go s.refetch()
	}
}

func (s *Session) onDisconnect(err error) {
	s.rooms.OnDisconnected()
	s.recon.Disconnected(err)
}

// --- snapshot loading ---

func (s *Session) fetch(ctx context.Context) (*domain.Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	snap, err := s.loader.Fetch(ctx, s.documentID)
	if s.ctx.Err() != nil {
		return nil, domain.ErrSessionClosed
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// refetch reconciles after a reconnect. Missed events are not replayed by
// the server, so the snapshot is the only way to catch up.
func (s *Session) refetch() {
	defer s.fetches.Done()

	snap, err := s.fetch(s.ctx)
	switch {
	case errors.Is(err, domain.ErrSessionClosed):
		return
	case errors.Is(err, domain.ErrNotFound):
		s.log.Info("document gone after reconnect")
		s.post(func() { s.handleEvent(domain.DocumentDeleted{DocumentID: s.documentID}) })
	case errors.Is(err, domain.ErrAuth):
		s.post(func() { s.fail(err) })
	case err != nil:
		s.log.Warn("refetch after reconnect failed: %v", err)
	default:
		s.post(func() { s.applySnapshot(*snap) })
	}
}

// --- loop handlers ---

func (s *Session) applySnapshot(snap domain.Snapshot) {
	next, res := Reduce(s.state, domain.SnapshotLoaded{Snapshot: snap})
	s.state = next
	if res.Outcome == OutcomeIgnored {
		s.log.Debug("snapshot ignored: %s", res.Reason)
		return
	}
	s.log.Debug("seeded: status=%s replayed=%d", s.state.Document.Status, res.Replayed)

	if snap.Conversation.ID != "" {
		s.conversationID = snap.Conversation.ID
	}
	if answer, resolved, ok := s.chat.Reconcile(snap.Conversation.Messages); ok {
		s.resolve(resolved.ID, domain.AskResult{Answer: answer})
	}
	s.persist()
	s.publish()
}

func (s *Session) handleEvent(ev domain.Event) {
	if answer, ok := ev.(domain.LLMAnswer); ok {
		s.handleAnswer(answer)
		return
	}

	next, res := Reduce(s.state, ev)
	s.state = next

	switch res.Outcome {
	case OutcomeIgnored:
		s.log.Debug("%s ignored: %s", ev.Name(), res.Reason)
		return
	case OutcomeBuffered:
		s.log.Debug("%s buffered until snapshot", ev.Name())
		return
	case OutcomeDeleted:
		s.markDeleted()
		return
	}

	if res.Changed {
		s.persist()
		s.publish()
	}
}

func (s *Session) handleAnswer(ev domain.LLMAnswer) {
	if s.state.Deleted || ev.DocumentID != s.documentID {
		return
	}
	msg, resolved, ok := s.chat.Answer(ev)
	if !ok {
		s.log.Debug("stale answer dropped")
		return
	}
	s.resolve(resolved.ID, domain.AskResult{Answer: msg})
	s.persist()
	s.publish()
}

func (s *Session) submit(question string) (chan domain.AskResult, error) {
	if s.state.Deleted {
		return nil, domain.ErrDocumentDeleted
	}
	if s.fatal != nil {
		return nil, s.fatal
	}
	status := s.state.Document.Status
	if !s.state.Seeded {
		status = ""
	}
	pending, err := s.chat.Begin(status, question)
	if err != nil {
		return nil, err
	}

	req := domain.AskRequest{DocumentID: s.documentID, Question: pending.Content}
	if err := s.transport.Emit(s.ctx, domain.EventLLMAsk, req); err != nil {
		s.chat.Abandon()
		s.publish()
		return nil, fmt.Errorf("send question: %w", err)
	}

	ch := make(chan domain.AskResult, 1)
	s.waiters[pending.ID] = ch
	id := pending.ID
	s.timers[id] = time.AfterFunc(s.cfg.AskTimeout, func() {
		s.post(func() { s.expire(id) })
	})
	s.publish()
	return ch, nil
}

func (s *Session) expire(id string) {
	if !s.chat.Expire(id) {
		return
	}
	s.log.Warn("question timed out after %s", s.cfg.AskTimeout)
	s.resolve(id, domain.AskResult{Err: domain.ErrTimeout})
	s.publish()
}

func (s *Session) markDeleted() {
	s.log.Info("document deleted")
	s.abandon(domain.ErrDocumentDeleted)
	s.deletedOnce.Do(func() { close(s.deleted) })
	if s.store != nil {
		if err := s.store.Delete(context.Background(), s.documentID); err != nil {
			s.log.Warn("drop cached snapshot: %v", err)
		}
	}
	s.publish()
}

func (s *Session) setConnection(st domain.ConnectionState) {
	if s.connState == st {
		return
	}
	s.connState = st
	s.publish()
}

func (s *Session) fail(err error) {
	s.log.Warn("session failed: %v", err)
	s.fatal = err
	s.abandon(err)
	s.publish()
	s.failedOnce.Do(func() { close(s.failed) })
}

func (s *Session) shutdown() {
	s.abandon(domain.ErrSessionClosed)
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.publish()
}

// abandon clears the pending question and fails its waiter with err.
func (s *Session) abandon(err error) {
	if p, ok := s.chat.Abandon(); ok {
		s.resolve(p.ID, domain.AskResult{Err: err})
	}
}

func (s *Session) resolve(id string, res domain.AskResult) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	if ch, ok := s.waiters[id]; ok {
		ch <- res
		delete(s.waiters, id)
	}
}

func (s *Session) persist() {
	if s.store == nil || !s.state.Seeded || s.state.Deleted {
		return
	}
	snap := &domain.Snapshot{
		Document: s.state.Document,
		Conversation: domain.Conversation{
			ID:         s.conversationID,
			DocumentID: s.documentID,
			Messages:   s.chat.Transcript(),
		},
	}
	if err := s.store.Save(context.Background(), snap); err != nil {
		s.log.Warn("cache snapshot: %v", err)
	}
}

func (s *Session) buildView() domain.SessionView {
	return domain.SessionView{
		Document:   s.state.Document,
		Loaded:     s.state.Seeded,
		Progress:   s.state.Progress,
		Transcript: s.chat.Transcript(),
		Pending:    s.chat.Pending(),
		Connection: s.connState,
		Deleted:    s.state.Deleted,
		Err:        s.fatal,
	}
}

// publish stores the current view and offers it on the updates channel,
// replacing any view the consumer has not read yet.
func (s *Session) publish() {
	v := s.buildView()

	s.viewMu.Lock()
	s.view = v
	s.viewMu.Unlock()

	if v.Loaded && v.Document.Status.IsTerminal() {
		s.settledOnce.Do(func() { close(s.settled) })
	}

	select {
	case s.updates <- copyView(v):
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- copyView(v):
	default:
	}
}

func copyView(v domain.SessionView) domain.SessionView {
	v.Transcript = append([]domain.Message(nil), v.Transcript...)
	if v.Pending != nil {
		p := *v.Pending
		v.Pending = &p
	}
	return v
}

// --- factory ---

// Ensure SessionFactory implements the interface.
var _ driving.SessionFactory = (*SessionFactory)(nil)

// SessionFactory opens sessions, each with its own channel.
type SessionFactory struct {
	loader   driven.SnapshotLoader
	channels driven.ChannelFactory
	store    driven.SnapshotStore
	cfg      SessionConfig
}

// NewSessionFactory creates a session factory. store may be nil.
func NewSessionFactory(
	loader driven.SnapshotLoader,
	channels driven.ChannelFactory,
	store driven.SnapshotStore,
	cfg SessionConfig,
) *SessionFactory {
	return &SessionFactory{
		loader:   loader,
		channels: channels,
		store:    store,
		cfg:      cfg,
	}
}

// Open creates an unstarted session for a document.
func (f *SessionFactory) Open(documentID string) driving.DocumentSession {
	return NewSession(documentID, f.loader, f.channels.NewChannel(), f.store, f.cfg)
}
