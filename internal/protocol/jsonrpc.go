// Package protocol implements the MCP message layer: JSON-RPC 2.0 framing,
// the handshake, tool listing and tool calls. A Handler is one session's
// protocol state; transports feed it raw messages.
package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// JSON-RPC error codes. CodeNoSession is the server-defined code for a
// request that carries no usable session.
const (
	CodeParseError     = mcp.PARSE_ERROR
	CodeInvalidRequest = mcp.INVALID_REQUEST
	CodeMethodNotFound = mcp.METHOD_NOT_FOUND
	CodeInvalidParams  = mcp.INVALID_PARAMS
	CodeInternalError  = mcp.INTERNAL_ERROR
	CodeNoSession      = -32000
)

// MethodInitialized is the notification a client sends after the handshake
const MethodInitialized = "notifications/initialized"

// MethodProgress carries progress of a long running tools/call
const MethodProgress = "notifications/progress"

// Request is an inbound JSON-RPC message. A Request without an ID is a
// notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is an outbound JSON-RPC response
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the error member of a Response
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Notification is a server to client message without an ID
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// ProgressParams is the payload of notifications/progress
type ProgressParams struct {
	ProgressToken any     `json:"progressToken"`
	Progress      float64 `json:"progress"`
	Total         float64 `json:"total,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// NewResult builds a success response
func NewResult(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: mcp.JSONRPC_VERSION, ID: id, Result: result}
}

// NewError builds an error response. A nil id is encoded as null.
func NewError(id json.RawMessage, code int, message string) *Response {
	return &Response{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	}
}

// Decode parses raw into a Request
func Decode(raw []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// IsInitialize reports whether raw is a handshake: a JSON object with an
// id whose method is initialize and whose params member is present. An
// initialize without an id is a notification and opens nothing.
func IsInitialize(raw []byte) bool {
	req, err := Decode(raw)
	if err != nil {
		return false
	}
	return !req.IsNotification() && req.Method == string(mcp.MethodInitialize) && hasParams(req.Params)
}

func hasParams(params json.RawMessage) bool {
	trimmed := bytes.TrimSpace(params)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
