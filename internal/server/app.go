// Package server exposes the gateway over HTTP: the streaming MCP endpoint,
// the back-compatibility tool surface, health and metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kagent-dev/zendesk-mcp/internal/metrics"
	"github.com/kagent-dev/zendesk-mcp/internal/session"
	"github.com/kagent-dev/zendesk-mcp/pkg/tools"
)

const (
	// KeepAliveInterval is how often an idle event stream receives a comment
	KeepAliveInterval = 30 * time.Second

	// SessionHeader carries the session identifier in both directions
	SessionHeader = "Mcp-Session-Id"

	maxBodySize = 4 << 20
)

// App is the HTTP face of the gateway
type App struct {
	Name       string
	Version    string
	Host       string
	Port       int
	Dispatcher *tools.Dispatcher
	Sessions   *session.Manager
	Metrics    *metrics.Metrics

	keepAlive time.Duration
	router    *mux.Router
}

// Option configures an App
type Option func(*App)

// WithKeepAlive overrides the event stream keep-alive interval
func WithKeepAlive(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.keepAlive = d
		}
	}
}

// WithAddress sets the listen address used by Build
func WithAddress(host string, port int) Option {
	return func(a *App) {
		a.Host = host
		a.Port = port
	}
}

// WithVersion sets the name and version reported by /health
func WithVersion(name, version string) Option {
	return func(a *App) {
		a.Name = name
		a.Version = version
	}
}

// NewApp creates a new App
func NewApp(dispatcher *tools.Dispatcher, sessions *session.Manager, mtr *metrics.Metrics, opts ...Option) *App {
	a := &App{
		Name:       "zendesk-mcp",
		Version:    "dev",
		Port:       3000,
		Dispatcher: dispatcher,
		Sessions:   sessions,
		Metrics:    mtr,
		keepAlive:  KeepAliveInterval,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.router = mux.NewRouter()
	a.setupRoutes()
	return a
}

// Handler returns the routed handler
func (a *App) Handler() http.Handler {
	return a.router
}

// Build creates the HTTP server. There is no write timeout since event
// streams stay open for the lifetime of a session.
func (a *App) Build(_ context.Context) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.Host, a.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Shutdown closes every session, which ends their event streams. Call it
// before http.Server.Shutdown so open streams do not hold it up.
func (a *App) Shutdown(ctx context.Context) {
	a.Sessions.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	a.router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	a.router.Handle("/metrics", a.Metrics.Handler()).Methods(http.MethodGet)

	a.router.HandleFunc("/mcp", a.handleMCP)

	a.router.HandleFunc("/tools", a.handleListTools).Methods(http.MethodGet)
	a.router.HandleFunc("/tools/{name}", a.handleCallTool).Methods(http.MethodPost)
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"app":      a.Name,
		"version":  a.Version,
		"sessions": a.Sessions.Len(),
		"tools":    a.Dispatcher.Registry().Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
