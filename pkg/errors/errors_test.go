package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeRemoteCall, "request failed", nil)

	assert.NotNil(t, err)
	assert.Equal(t, ErrCodeRemoteCall, err.Code)
	assert.Equal(t, "request failed", err.Message)
	assert.Nil(t, err.Cause)
}

func TestNew_WithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(ErrCodeRemoteCall, "request failed", cause)

	assert.Equal(t, cause, err.Cause)
	assert.Contains(t, err.Error(), ErrCodeRemoteCall)
	assert.Contains(t, err.Error(), "request failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewf(t *testing.T) {
	err := Newf(ErrCodeUnknownTool, "unknown tool: %s", "frobnicate")

	assert.Equal(t, ErrCodeUnknownTool, err.Code)
	assert.Equal(t, "unknown tool: frobnicate", err.Message)
}

func TestAppError_NilCause(t *testing.T) {
	err := New(ErrCodeToolExecution, "tool failed", nil)
	errorString := err.Error()

	assert.NotEmpty(t, errorString)
	assert.NotContains(t, errorString, "nil")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(ErrCodeToolExecution, "tool failed", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeRemoteCall, "timeout", nil)
	outer := New(ErrCodeToolExecution, "get_ticket failed", inner)
	wrapped := fmt.Errorf("dispatch: %w", outer)

	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{"direct", inner, ErrCodeRemoteCall, true},
		{"nested cause", outer, ErrCodeRemoteCall, true},
		{"fmt wrapped", wrapped, ErrCodeToolExecution, true},
		{"absent code", wrapped, ErrCodeNoSession, false},
		{"plain error", errors.New("boom"), ErrCodeRemoteCall, false},
		{"nil", nil, ErrCodeRemoteCall, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCode(tt.err, tt.code))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "no arguments provided", Message(New(ErrCodeMissingArgs, "no arguments provided", nil)))
	assert.Equal(t, "fetch failed: 503", Message(New(ErrCodeRemoteCall, "fetch failed", errors.New("503"))))
	assert.Equal(t, "503", Message(New(ErrCodeRemoteCall, "", errors.New("503"))))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}

func TestMessage_KeepsWrappingContext(t *testing.T) {
	remote := New(ErrCodeRemoteCall, "Zendesk GET /tickets/9/comments.json?page=2: unexpected status 500", nil)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "fmt wrapped",
			err:  fmt.Errorf("page 2 of /tickets/9/comments.json: %w", remote),
			want: "page 2 of /tickets/9/comments.json: Zendesk GET /tickets/9/comments.json?page=2: unexpected status 500",
		},
		{
			name: "nested app errors",
			err:  New(ErrCodeToolExecution, "get_ticket_comments failed", remote),
			want: "get_ticket_comments failed: Zendesk GET /tickets/9/comments.json?page=2: unexpected status 500",
		},
		{
			name: "app error wrapping fmt wrapped",
			err:  New(ErrCodeToolExecution, "outer", fmt.Errorf("page 3 of /groups.json: %w", remote)),
			want: "outer: page 3 of /groups.json: Zendesk GET /tickets/9/comments.json?page=2: unexpected status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Message(tt.err)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, ErrCodeRemoteCall)
		})
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrCodeConfiguration,
		ErrCodeConfigInvalid,
		ErrCodeUnknownTool,
		ErrCodeMissingArgs,
		ErrCodeInvalidArgument,
		ErrCodeNoSession,
		ErrCodeSessionCreate,
		ErrCodeRemoteCall,
		ErrCodePageLimit,
		ErrCodeToolExecution,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code)
		assert.False(t, seen[code], "duplicate error code: %s", code)
		seen[code] = true
	}
}
