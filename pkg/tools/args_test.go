package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kagent-dev/zendesk-mcp/pkg/errors"
)

func TestRequireID(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int64
		wantErr string
	}{
		{name: "json number", value: float64(42), want: 42},
		{name: "json.Number", value: json.Number("7"), want: 7},
		{name: "numeric string", value: " 13 ", want: 13},
		{name: "int", value: 5, want: 5},
		{name: "fraction", value: 1.5, wantErr: "positive integer"},
		{name: "word", value: "abc", wantErr: `got "abc"`},
		{name: "zero", value: float64(0), wantErr: "got 0"},
		{name: "negative", value: "-3", wantErr: "got -3"},
		{name: "bool", value: true, wantErr: "got bool"},
		{name: "nil", value: nil, wantErr: "is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := requireID(map[string]any{"id": tt.value}, "id")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestRequireID_Missing(t *testing.T) {
	_, err := requireID(map[string]any{}, "id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"id" is required`)
}

func TestRequireString(t *testing.T) {
	s, err := requireString(map[string]any{"q": "  printer  "}, "q")
	require.NoError(t, err)
	assert.Equal(t, "printer", s)

	_, err = requireString(map[string]any{"q": "   "}, "q")
	assert.ErrorContains(t, err, "is required")

	_, err = requireString(map[string]any{"q": 12.0}, "q")
	assert.ErrorContains(t, err, "must be a string")
}

func TestOptionalBool(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		fallback bool
		want     bool
		wantErr  bool
	}{
		{name: "absent uses fallback", args: map[string]any{}, fallback: true, want: true},
		{name: "bool", args: map[string]any{"public": false}, fallback: true, want: false},
		{name: "string", args: map[string]any{"public": "false"}, fallback: true, want: false},
		{name: "garbage", args: map[string]any{"public": "maybe"}, wantErr: true},
		{name: "number", args: map[string]any{"public": 1.0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := optionalBool(tt.args, "public", tt.fallback)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionalStrings(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    []string
		wantErr bool
	}{
		{name: "array", value: []any{"vip", " billing "}, want: []string{"vip", "billing"}},
		{name: "comma separated", value: "vip, billing,,", want: []string{"vip", "billing"}},
		{name: "typed slice", value: []string{"a"}, want: []string{"a"}},
		{name: "mixed array", value: []any{"vip", 3.0}, wantErr: true},
		{name: "object", value: map[string]any{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := optionalStrings(map[string]any{"tags": tt.value}, "tags")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionalEnum(t *testing.T) {
	got, err := optionalEnum(map[string]any{"priority": "URGENT"}, "priority", ticketPriorities)
	require.NoError(t, err)
	assert.Equal(t, "urgent", got)

	got, err = optionalEnum(map[string]any{}, "priority", ticketPriorities)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = optionalEnum(map[string]any{"priority": "asap"}, "priority", ticketPriorities)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "low, normal, high, urgent")
}
