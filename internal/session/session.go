// Package session owns the table of live streaming sessions: creating a
// session from a handshake, routing later requests to it, and tearing it
// down exactly once.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kagent-dev/zendesk-mcp/internal/protocol"
)

// State is the lifecycle position of a session. Transitions only move
// forward: initializing, active, closed.
type State int32

const (
	StateInitializing State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrClosed is returned when delivering to a closed session
var ErrClosed = errors.New("session closed")

// ErrQueueFull is returned when the outbound queue has no room
var ErrQueueFull = errors.New("session outbound queue full")

// Session is one client connection on the streaming transport
type Session struct {
	id        string
	handler   *protocol.Handler
	state     atomic.Int32
	createdAt time.Time

	outbound  chan protocol.Notification
	done      chan struct{}
	closeOnce sync.Once
	onClose   func(*Session)
}

func newSession(queueSize int) *Session {
	return &Session{
		createdAt: time.Now(),
		outbound:  make(chan protocol.Notification, queueSize),
		done:      make(chan struct{}),
	}
}

// ID returns the session identifier. It is empty until the session is
// registered.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

// Handler returns the session's protocol handler
func (s *Session) Handler() *protocol.Handler {
	return s.handler
}

// CreatedAt returns when the handshake arrived
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Outbound yields notifications queued for the client's event stream
func (s *Session) Outbound() <-chan protocol.Notification {
	return s.outbound
}

// Done is closed when the session closes
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Notify queues a notification for the event stream without blocking
func (s *Session) Notify(_ context.Context, n protocol.Notification) error {
	if s.State() == StateClosed {
		return ErrClosed
	}
	select {
	case <-s.done:
		return ErrClosed
	case s.outbound <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

// activate moves initializing to active. It succeeds at most once.
func (s *Session) activate() bool {
	return s.state.CompareAndSwap(int32(StateInitializing), int32(StateActive))
}

// Close tears the session down. Concurrent and repeated calls collapse
// into one teardown.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}
