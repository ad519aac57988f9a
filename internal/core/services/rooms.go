package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driven"
	"github.com/ocrchat/ocrchat-cli/internal/logger"
)

// RoomState is the lifecycle state of a room subscription.
type RoomState int

// Room subscription states.
const (
	RoomIdle RoomState = iota
	RoomJoined
	RoomPendingRejoin
	RoomLeft
)

// String returns the string representation of the room state.
func (s RoomState) String() string {
	switch s {
	case RoomIdle:
		return "idle"
	case RoomJoined:
		return "joined"
	case RoomPendingRejoin:
		return "pending-rejoin"
	case RoomLeft:
		return "left"
	default:
		return "unknown"
	}
}

// RoomSubscription keeps a channel joined to one document room.
//
// The server forgets membership when a connection drops, so every new
// connection re-emits the join. Once left, the subscription never joins again.
type RoomSubscription struct {
	documentID string
	room       string
	transport  driven.ChannelTransport
	log        *logger.Logger

	mu    sync.Mutex
	state RoomState
}

// NewRoomSubscription creates an idle subscription for a document.
func NewRoomSubscription(documentID string, transport driven.ChannelTransport) *RoomSubscription {
	return &RoomSubscription{
		documentID: documentID,
		room:       domain.RoomName(documentID),
		transport:  transport,
		log:        logger.With("room", domain.RoomName(documentID)),
	}
}

// Room returns the room name.
func (r *RoomSubscription) Room() string {
	return r.room
}

// State returns the current subscription state.
func (r *RoomSubscription) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Join emits join_room. A failed emit leaves the subscription pending so
// the next connection retries it.
func (r *RoomSubscription) Join(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == RoomLeft {
		return fmt.Errorf("join %s: %w", r.room, domain.ErrSessionClosed)
	}
	if err := r.transport.Emit(ctx, domain.EventJoinRoom, domain.RoomRequest{Room: r.room}); err != nil {
		r.state = RoomPendingRejoin
		return fmt.Errorf("join %s: %w", r.room, err)
	}
	r.state = RoomJoined
	r.log.Debug("joined")
	return nil
}

// OnConnected joins (or rejoins) after a successful connect. It must run
// before the connection delivers any event.
func (r *RoomSubscription) OnConnected(ctx context.Context) error {
	if r.State() == RoomLeft {
		return nil
	}
	return r.Join(ctx)
}

// OnDisconnected marks a joined subscription for rejoin.
func (r *RoomSubscription) OnDisconnected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == RoomJoined {
		r.state = RoomPendingRejoin
		r.log.Debug("pending rejoin")
	}
}

// Leave emits leave_room when joined and marks the subscription left.
func (r *RoomSubscription) Leave(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.state
	r.state = RoomLeft
	if prev != RoomJoined {
		return nil
	}
	if err := r.transport.Emit(ctx, domain.EventLeaveRoom, domain.RoomRequest{Room: r.room}); err != nil {
		return fmt.Errorf("leave %s: %w", r.room, err)
	}
	r.log.Debug("left")
	return nil
}

// Release leaves the room and then disconnects the transport. The
// disconnect runs even if leaving fails or panics.
func (r *RoomSubscription) Release(ctx context.Context) (err error) {
	defer func() {
		if derr := r.transport.Disconnect(); derr != nil {
			err = errors.Join(err, fmt.Errorf("disconnect: %w", derr))
		}
	}()
	return r.Leave(ctx)
}
