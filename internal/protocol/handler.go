package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/go-logr/logr"
	"github.com/mark3labs/mcp-go/mcp"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/kagent-dev/zendesk-mcp/pkg/tools"
)

// ToolInvoker lists and runs tools. *tools.Dispatcher implements it.
type ToolInvoker interface {
	Tools() []mcp.Tool
	Invoke(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult
}

// Notifier delivers server initiated messages to the client
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

type notifierKey struct{}

// WithNotifier routes notifications raised while handling one request to
// n instead of the handler's own notifier.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, notifierKey{}, n)
}

type initializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ClientInfo      mcp.Implementation `json:"clientInfo"`
}

type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    serverCapabilities `json:"capabilities"`
	ServerInfo      mcp.Implementation `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

type serverCapabilities struct {
	Tools *toolCapability `json:"tools,omitempty"`
}

type toolCapability struct {
	ListChanged bool `json:"listChanged"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Meta      *struct {
		ProgressToken any `json:"progressToken,omitempty"`
	} `json:"_meta,omitempty"`
}

// Handler holds the protocol state of one session
type Handler struct {
	invoker       ToolInvoker
	info          mcp.Implementation
	instructions  string
	notifier      Notifier
	onInitialized func(protocolVersion string) error

	mu          sync.Mutex
	initialized bool
	version     string
	client      mcp.Implementation
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithServerInfo sets the implementation reported during the handshake
func WithServerInfo(name, version string) HandlerOption {
	return func(h *Handler) { h.info = mcp.Implementation{Name: name, Version: version} }
}

// WithInstructions sets the instructions returned by initialize
func WithInstructions(text string) HandlerOption {
	return func(h *Handler) { h.instructions = text }
}

// WithDefaultNotifier sets the notifier used when a request carries none
func WithDefaultNotifier(n Notifier) HandlerOption {
	return func(h *Handler) { h.notifier = n }
}

// OnInitialized registers a callback run when the handshake succeeds. An
// error fails the handshake and leaves the handler uninitialized.
func OnInitialized(fn func(protocolVersion string) error) HandlerOption {
	return func(h *Handler) { h.onInitialized = fn }
}

// NewHandler creates a new Handler
func NewHandler(invoker ToolInvoker, opts ...HandlerOption) *Handler {
	h := &Handler{
		invoker: invoker,
		info:    mcp.Implementation{Name: "zendesk-mcp", Version: "dev"},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Initialized reports whether the handshake has completed
func (h *Handler) Initialized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialized
}

// ProtocolVersion returns the negotiated protocol version
func (h *Handler) ProtocolVersion() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.version
}

// Client returns the implementation the client announced
func (h *Handler) Client() mcp.Implementation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.client
}

// Handle processes one raw message. It returns nil for notifications and
// for messages that need no reply.
func (h *Handler) Handle(ctx context.Context, raw []byte) *Response {
	req, err := Decode(raw)
	if err != nil {
		return NewError(nil, CodeParseError, "Parse error: "+err.Error())
	}
	return h.HandleRequest(ctx, req)
}

// HandleRequest processes an already decoded message
func (h *Handler) HandleRequest(ctx context.Context, req *Request) *Response {
	log := ctrllog.FromContext(ctx).WithName("protocol").WithValues("method", req.Method)

	if req.JSONRPC != mcp.JSONRPC_VERSION {
		if req.IsNotification() {
			return nil
		}
		return NewError(req.ID, CodeInvalidRequest, fmt.Sprintf("Invalid Request: unsupported jsonrpc version %q", req.JSONRPC))
	}

	if req.IsNotification() {
		if req.Method != MethodInitialized {
			log.V(1).Info("Ignoring notification")
		}
		return nil
	}

	switch req.Method {
	case string(mcp.MethodInitialize):
		return h.initialize(req, log)
	case string(mcp.MethodPing):
		return NewResult(req.ID, struct{}{})
	case string(mcp.MethodToolsList), string(mcp.MethodToolsCall):
		if !h.Initialized() {
			return NewError(req.ID, CodeInvalidRequest, "Invalid Request: server not initialized")
		}
		if req.Method == string(mcp.MethodToolsList) {
			return h.listTools(req)
		}
		return h.callTool(ctx, req)
	default:
		return NewError(req.ID, CodeMethodNotFound, "Method not found: "+req.Method)
	}
}

func (h *Handler) initialize(req *Request, log logr.Logger) *Response {
	if !hasParams(req.Params) {
		return NewError(req.ID, CodeInvalidParams, "Invalid params: initialize requires params")
	}
	var params initializeParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewError(req.ID, CodeInvalidParams, "Invalid params: "+err.Error())
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		return NewError(req.ID, CodeInvalidRequest, "Invalid Request: session already initialized")
	}

	version := negotiateVersion(params.ProtocolVersion)
	if h.onInitialized != nil {
		if err := h.onInitialized(version); err != nil {
			log.Error(err, "Handshake callback failed")
			return NewError(req.ID, CodeInternalError, "Internal error: "+err.Error())
		}
	}
	h.initialized = true
	h.version = version
	h.client = params.ClientInfo

	log.V(1).Info("Session initialized", "client", params.ClientInfo.Name, "protocolVersion", version)
	return NewResult(req.ID, initializeResult{
		ProtocolVersion: version,
		Capabilities:    serverCapabilities{Tools: &toolCapability{}},
		ServerInfo:      h.info,
		Instructions:    h.instructions,
	})
}

// negotiateVersion echoes a version the server speaks and falls back to
// the latest otherwise.
func negotiateVersion(requested string) string {
	if slices.Contains(mcp.ValidProtocolVersions, requested) {
		return requested
	}
	return mcp.LATEST_PROTOCOL_VERSION
}

func (h *Handler) listTools(req *Request) *Response {
	list := h.invoker.Tools()
	if list == nil {
		list = []mcp.Tool{}
	}
	return NewResult(req.ID, mcp.ListToolsResult{Tools: list})
}

func (h *Handler) callTool(ctx context.Context, req *Request) *Response {
	var params callParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewError(req.ID, CodeInvalidParams, "Invalid params: "+err.Error())
	}
	if params.Name == "" {
		return NewError(req.ID, CodeInvalidParams, "Invalid params: tool name is required")
	}

	var args map[string]any
	if hasParams(params.Arguments) {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return NewError(req.ID, CodeInvalidParams, "Invalid params: arguments must be an object")
		}
	}

	if params.Meta != nil && params.Meta.ProgressToken != nil {
		ctx = tools.WithProgress(ctx, h.progressReporter(ctx, params.Meta.ProgressToken))
	}

	return NewResult(req.ID, h.invoker.Invoke(ctx, params.Name, args))
}

func (h *Handler) progressReporter(ctx context.Context, token any) tools.ProgressFunc {
	notifier := h.notifier
	if n, ok := ctx.Value(notifierKey{}).(Notifier); ok {
		notifier = n
	}
	if notifier == nil {
		return nil
	}

	log := ctrllog.FromContext(ctx).WithName("protocol")
	return func(progress, total float64, message string) {
		err := notifier.Notify(ctx, Notification{
			JSONRPC: mcp.JSONRPC_VERSION,
			Method:  MethodProgress,
			Params: ProgressParams{
				ProgressToken: token,
				Progress:      progress,
				Total:         total,
				Message:       message,
			},
		})
		if err != nil {
			log.V(1).Info("Dropped progress notification", "error", err.Error())
		}
	}
}
