package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/kagent-dev/zendesk-mcp/internal/protocol"
	"github.com/kagent-dev/zendesk-mcp/internal/session"
	apperrors "github.com/kagent-dev/zendesk-mcp/pkg/errors"
)

// handleMCP serves the streaming transport on one path for every method
func (a *App) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.handlePost(w, r)
	case http.MethodGet:
		a.handleStream(w, r)
	case http.MethodDelete:
		a.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeJSON(w, http.StatusMethodNotAllowed,
			protocol.NewError(nil, protocol.CodeInvalidRequest, "Method not allowed"))
	}
}

func writeNoSession(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, protocol.NewError(nil, protocol.CodeNoSession, session.NoSessionMessage))
}

func (a *App) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := ctrllog.FromContext(ctx).WithName("streamable-http")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.NewError(nil, protocol.CodeParseError, "Parse error: "+err.Error()))
		return
	}

	s, created, err := a.Sessions.ResolveOrCreate(ctx, body, r.Header.Get(SessionHeader))
	switch {
	case apperrors.IsCode(err, apperrors.ErrCodeNoSession):
		writeNoSession(w)
		return
	case err != nil:
		log.Error(err, "Session construction failed")
		writeJSON(w, http.StatusInternalServerError,
			protocol.NewError(nil, protocol.CodeInternalError, "Internal error: "+apperrors.Message(err)))
		return
	case s == nil && created == nil:
		writeNoSession(w)
		return
	case s == nil:
		writeJSON(w, http.StatusBadRequest, created)
		return
	case created != nil:
		w.Header().Set(SessionHeader, s.ID())
		writeJSON(w, http.StatusOK, created)
		return
	}

	req, err := protocol.Decode(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.NewError(nil, protocol.CodeParseError, "Parse error: "+err.Error()))
		return
	}

	if req.IsNotification() || req.Method == "" {
		// Notifications and client responses carry no reply
		if _, err := a.Sessions.Route(ctx, s, body); err != nil {
			writeNoSession(w)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if req.Method == string(mcp.MethodToolsCall) && acceptsEventStream(r) {
		a.streamCall(w, r, s, body)
		return
	}

	resp, err := a.Sessions.Route(ctx, s, body)
	if err != nil {
		writeNoSession(w)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// streamCall answers one tools/call as an event stream: progress
// notifications raised during the call, then the response.
func (a *App) streamCall(w http.ResponseWriter, r *http.Request, s *session.Session, body []byte) {
	log := ctrllog.FromContext(r.Context()).WithName("streamable-http").WithValues("sessionID", s.ID())

	events, ok := newEventWriter(w)
	if !ok {
		resp, err := a.Sessions.Route(r.Context(), s, body)
		if err != nil {
			writeNoSession(w)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx := protocol.WithNotifier(r.Context(), protocol.NotifierFunc(func(_ context.Context, n protocol.Notification) error {
		return events.Message(n)
	}))

	resp, err := a.Sessions.Route(ctx, s, body)
	if err != nil {
		resp = protocol.NewError(nil, protocol.CodeNoSession, session.NoSessionMessage)
	}
	if err := events.Message(resp); err != nil {
		log.V(1).Info("Client went away before the response was written", "error", err.Error())
	}
}

// handleStream opens the server-to-client event stream of a session
func (a *App) handleStream(w http.ResponseWriter, r *http.Request) {
	s, ok := a.Sessions.Get(r.Header.Get(SessionHeader))
	if !ok {
		writeNoSession(w)
		return
	}
	if !acceptsEventStream(r) {
		writeJSON(w, http.StatusNotAcceptable,
			protocol.NewError(nil, protocol.CodeInvalidRequest, "Not Acceptable: client must accept text/event-stream"))
		return
	}

	events, ok := newEventWriter(w)
	if !ok {
		writeJSON(w, http.StatusInternalServerError,
			protocol.NewError(nil, protocol.CodeInternalError, "Internal error: streaming unsupported"))
		return
	}

	ctx := r.Context()
	log := ctrllog.FromContext(ctx).WithName("streamable-http").WithValues("sessionID", s.ID())
	log.V(1).Info("Event stream opened")

	ticker := time.NewTicker(a.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.V(1).Info("Client disconnected, closing event stream")
			return

		case <-s.Done():
			log.V(1).Info("Session closed, ending event stream")
			return

		case n := <-s.Outbound():
			if err := events.Message(n); err != nil {
				log.V(1).Info("Failed to write event", "error", err.Error())
				return
			}
			ticker.Reset(a.keepAlive)

		case <-ticker.C:
			if err := events.Comment("keep-alive"); err != nil {
				log.V(1).Info("Failed to write keep-alive", "error", err.Error())
				return
			}
		}
	}
}

// handleDelete lets the client terminate its session
func (a *App) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(SessionHeader)
	if id == "" || !a.Sessions.Close(id) {
		writeNoSession(w)
		return
	}
	ctrllog.FromContext(r.Context()).WithName("streamable-http").Info("Session closed by client", "sessionID", id)
	w.WriteHeader(http.StatusOK)
}
