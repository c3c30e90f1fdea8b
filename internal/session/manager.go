package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/kagent-dev/zendesk-mcp/internal/metrics"
	"github.com/kagent-dev/zendesk-mcp/internal/protocol"
	apperrors "github.com/kagent-dev/zendesk-mcp/pkg/errors"
)

const (
	defaultQueueSize = 64
	maxIDAttempts    = 8
)

// NoSessionMessage is the client facing text of a missing or stale session
const NoSessionMessage = "Bad Request: No valid session ID provided"

// ErrShuttingDown rejects handshakes once Shutdown has begun
var ErrShuttingDown = errors.New("gateway is shutting down")

// Manager resolves, creates and closes sessions
type Manager struct {
	store       Store
	invoker     protocol.ToolInvoker
	handlerOpts []protocol.HandlerOption
	newID       func() string
	metrics     *metrics.Metrics
	queueSize   int
	closing     atomic.Bool
}

// Option configures a Manager
type Option func(*Manager)

// WithStore replaces the in-memory session table
func WithStore(store Store) Option {
	return func(m *Manager) {
		if store != nil {
			m.store = store
		}
	}
}

// WithIDGenerator replaces the UUID v4 generator
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithMetrics records session counts on mtr
func WithMetrics(mtr *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mtr }
}

// WithHandlerOptions applies opts to every session's protocol handler
func WithHandlerOptions(opts ...protocol.HandlerOption) Option {
	return func(m *Manager) { m.handlerOpts = append(m.handlerOpts, opts...) }
}

// WithQueueSize sets the per-session notification buffer
func WithQueueSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.queueSize = n
		}
	}
}

// NewManager creates a new Manager
func NewManager(invoker protocol.ToolInvoker, opts ...Option) *Manager {
	m := &Manager{
		store:     NewMemoryStore(),
		invoker:   invoker,
		newID:     uuid.NewString,
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ResolveOrCreate returns the live session named by sessionID. Without a
// sessionID, a handshake in raw creates a session; anything else fails
// with ErrCodeNoSession.
//
// On creation the handshake response is returned alongside the session.
// The session is registered only once the handshake has succeeded; if it
// fails at protocol level the session is nil and the response carries the
// error. A failure to register yields ErrCodeSessionCreate and leaves the
// table untouched.
func (m *Manager) ResolveOrCreate(ctx context.Context, raw []byte, sessionID string) (*Session, *protocol.Response, error) {
	if sessionID != "" {
		s, ok := m.store.Get(sessionID)
		if !ok || s.State() == StateClosed {
			return nil, nil, noSession()
		}
		return s, nil, nil
	}

	if !protocol.IsInitialize(raw) {
		return nil, nil, noSession()
	}
	return m.create(ctx, raw)
}

func (m *Manager) create(ctx context.Context, raw []byte) (*Session, *protocol.Response, error) {
	log := ctrllog.FromContext(ctx).WithName("session-manager")

	s := newSession(m.queueSize)
	var registerErr error
	opts := append([]protocol.HandlerOption{}, m.handlerOpts...)
	opts = append(opts,
		protocol.WithDefaultNotifier(s),
		protocol.OnInitialized(func(string) error {
			registerErr = m.register(s)
			return registerErr
		}),
	)
	s.handler = protocol.NewHandler(m.invoker, opts...)

	resp := s.handler.Handle(ctx, raw)
	if registerErr != nil {
		log.Error(registerErr, "Failed to register session")
		return nil, nil, apperrors.New(apperrors.ErrCodeSessionCreate, "failed to create session", registerErr)
	}
	if !s.handler.Initialized() {
		return nil, resp, nil
	}

	log.Info("Session created", "sessionID", s.id, "client", s.handler.Client().Name)
	return s, resp, nil
}

// register inserts s under a fresh identifier and activates it
func (m *Manager) register(s *Session) error {
	if m.closing.Load() {
		return ErrShuttingDown
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := m.newID()
		if id == "" {
			return fmt.Errorf("session id generator returned an empty id")
		}
		s.id = id
		s.onClose = m.deregister
		if !m.store.Insert(id, s) {
			continue
		}
		s.activate()
		m.metrics.SessionOpened()
		return nil
	}
	s.id = ""
	return fmt.Errorf("no unique session id after %d attempts", maxIDAttempts)
}

func (m *Manager) deregister(s *Session) {
	if m.store.Delete(s.id) {
		m.metrics.SessionClosed()
	}
}

// Get returns a live session
func (m *Manager) Get(sessionID string) (*Session, bool) {
	s, ok := m.store.Get(sessionID)
	if !ok || s.State() == StateClosed {
		return nil, false
	}
	return s, true
}

// Route hands raw to the session's protocol handler
func (m *Manager) Route(ctx context.Context, s *Session, raw []byte) (*protocol.Response, error) {
	if s == nil || s.State() == StateClosed {
		return nil, noSession()
	}
	return s.handler.Handle(ctx, raw), nil
}

// Close closes the session named by sessionID. It reports whether a live
// session was found; closing twice is harmless.
func (m *Manager) Close(sessionID string) bool {
	s, ok := m.store.Get(sessionID)
	if !ok {
		return false
	}
	s.Close()
	return true
}

// Len returns the number of registered sessions
func (m *Manager) Len() int {
	return m.store.Len()
}

// Shutdown closes every session and rejects new handshakes
func (m *Manager) Shutdown(ctx context.Context) {
	m.closing.Store(true)
	sessions := m.store.All()
	for _, s := range sessions {
		s.Close()
	}
	ctrllog.FromContext(ctx).WithName("session-manager").Info("Closed all sessions", "count", len(sessions))
}

func noSession() error {
	return apperrors.New(apperrors.ErrCodeNoSession, NoSessionMessage, nil)
}
