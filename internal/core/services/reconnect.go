package services

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driven"
	"github.com/ocrchat/ocrchat-cli/internal/logger"
)

// Backoff computes capped exponential reconnect delays with jitter.
type Backoff struct {
	// Base is the first delay.
	Base time.Duration

	// Max caps every delay, jitter included.
	Max time.Duration

	// Jitter is the random fraction of Base added to each delay.
	Jitter float64

	attempt int
	random  func() float64
}

// NewBackoff creates a backoff with half-base jitter.
func NewBackoff(base, maxDelay time.Duration) *Backoff {
	return &Backoff{
		Base:   base,
		Max:    maxDelay,
		Jitter: 0.5,
		random: rand.Float64,
	}
}

// Next returns the delay for the next attempt and advances the counter.
func (b *Backoff) Next() time.Duration {
	jitter := 0.0
	if b.random != nil {
		jitter = b.random() * float64(b.Base) * b.Jitter
	}
	delay := math.Min(
		float64(b.Base)*math.Pow(2, float64(b.attempt))+jitter,
		float64(b.Max),
	)
	b.attempt++
	return time.Duration(delay)
}

// Attempt returns the number of delays handed out since the last Reset.
func (b *Backoff) Attempt() int {
	return b.attempt
}

// Reset starts the sequence over after a successful connection.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// ReconnectController drives a channel through
// Connecting -> Connected -> Disconnected -> Reconnecting -> Connected.
//
// Unexpected disconnects schedule reconnect attempts with Backoff until
// Stop is called. A credential rejection stops retrying and is reported
// through the fatal callback.
type ReconnectController struct {
	transport driven.ChannelTransport
	backoff   *Backoff
	onState   func(domain.ConnectionState)
	onFatal   func(error)
	log       *logger.Logger

	mu      sync.Mutex
	state   domain.ConnectionState
	ctx     context.Context
	cancel  context.CancelFunc
	timer   *time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// NewReconnectController creates a controller for a transport.
// onState and onFatal may be nil; they must not block.
func NewReconnectController(
	transport driven.ChannelTransport,
	backoff *Backoff,
	onState func(domain.ConnectionState),
	onFatal func(error),
) *ReconnectController {
	if onState == nil {
		onState = func(domain.ConnectionState) {}
	}
	if onFatal == nil {
		onFatal = func(error) {}
	}
	return &ReconnectController{
		transport: transport,
		backoff:   backoff,
		onState:   onState,
		onFatal:   onFatal,
		log:       logger.With("component", "reconnect"),
		state:     domain.ConnectionDisconnected,
	}
}

// Start performs the initial connect. A credential rejection is returned
// and nothing is retried. Any other failure schedules a reconnect and
// Start returns nil.
func (r *ReconnectController) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if r.ctx != nil {
		r.mu.Unlock()
		return nil
	}
	r.ctx, r.cancel = context.WithCancel(context.WithoutCancel(ctx))
	r.setStateLocked(domain.ConnectionConnecting)
	runCtx := r.ctx
	r.mu.Unlock()

	err := r.transport.Connect(ctx)
	if err == nil {
		r.connected()
		return nil
	}
	if errors.Is(err, domain.ErrAuth) {
		r.mu.Lock()
		r.setStateLocked(domain.ConnectionDisconnected)
		r.mu.Unlock()
		return err
	}
	if ctx.Err() != nil {
		r.mu.Lock()
		r.setStateLocked(domain.ConnectionDisconnected)
		r.mu.Unlock()
		return ctx.Err()
	}
	if runCtx.Err() != nil {
		return domain.ErrSessionClosed
	}

	r.log.Warn("initial connect failed: %v", err)
	r.mu.Lock()
	r.setStateLocked(domain.ConnectionDisconnected)
	r.scheduleLocked()
	r.mu.Unlock()
	return nil
}

// Disconnected reports an unexpected transport loss.
func (r *ReconnectController) Disconnected(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || r.ctx == nil {
		return
	}
	r.log.Debug("channel lost: %v", err)
	r.setStateLocked(domain.ConnectionDisconnected)
	r.scheduleLocked()
}

// State returns the current connection state.
func (r *ReconnectController) State() domain.ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Stop cancels pending and in-flight attempts. Idempotent.
// It does not disconnect the transport.
func (r *ReconnectController) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	if r.timer != nil {
		if r.timer.Stop() {
			r.wg.Done()
		}
		r.timer = nil
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	r.wg.Wait()
}

// scheduleLocked arms a single reconnect timer. Caller holds mu.
func (r *ReconnectController) scheduleLocked() {
	if r.stopped || r.timer != nil {
		return
	}
	delay := r.backoff.Next()
	r.setStateLocked(domain.ConnectionReconnecting)
	r.log.Debug("reconnect attempt %d in %s", r.backoff.Attempt(), delay)

	r.wg.Add(1)
	r.timer = time.AfterFunc(delay, func() {
		defer r.wg.Done()
		r.attempt()
	})
}

func (r *ReconnectController) attempt() {
	r.mu.Lock()
	r.timer = nil
	if r.stopped {
		r.mu.Unlock()
		return
	}
	ctx := r.ctx
	r.mu.Unlock()

	err := r.transport.Connect(ctx)

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		if err == nil {
			_ = r.transport.Disconnect()
		}
		return
	}
	switch {
	case err == nil:
		r.mu.Unlock()
		r.connected()
	case errors.Is(err, domain.ErrAuth):
		r.stopped = true
		r.setStateLocked(domain.ConnectionDisconnected)
		r.mu.Unlock()
		r.log.Warn("reconnect rejected: %v", err)
		r.onFatal(err)
	default:
		r.log.Debug("reconnect failed: %v", err)
		r.scheduleLocked()
		r.mu.Unlock()
	}
}

func (r *ReconnectController) connected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		// Lost again before we got here; the scheduled attempt takes over.
		return
	}
	r.backoff.Reset()
	r.setStateLocked(domain.ConnectionConnected)
}

func (r *ReconnectController) setStateLocked(s domain.ConnectionState) {
	if r.state == s {
		return
	}
	r.state = s
	r.onState(s)
}
