package tools

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/kagent-dev/zendesk-mcp/pkg/errors"
)

func invalidArgument(format string, a ...any) error {
	return apperrors.Newf(apperrors.ErrCodeInvalidArgument, format, a...)
}

// requireID extracts a positive integer identifier. JSON numbers arrive as
// float64; numeric strings are accepted since some clients quote ids.
func requireID(args map[string]any, key string) (int64, error) {
	id, ok, err := optionalID(args, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, invalidArgument("%q is required", key)
	}
	return id, nil
}

func optionalID(args map[string]any, key string) (int64, bool, error) {
	raw, present := args[key]
	if !present || raw == nil {
		return 0, false, nil
	}

	var id int64
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 {
			return 0, false, invalidArgument("%q must be a positive integer, got %v", key, v)
		}
		id = int64(v)
	case int:
		id = int64(v)
	case int64:
		id = v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false, invalidArgument("%q must be a positive integer, got %q", key, v.String())
		}
		id = n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false, invalidArgument("%q must be a positive integer, got %q", key, v)
		}
		id = n
	default:
		return 0, false, invalidArgument("%q must be a positive integer, got %T", key, raw)
	}

	if id <= 0 {
		return 0, false, invalidArgument("%q must be a positive integer, got %d", key, id)
	}
	return id, true, nil
}

func requireString(args map[string]any, key string) (string, error) {
	s, err := optionalString(args, key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", invalidArgument("%q is required", key)
	}
	return s, nil
}

func optionalString(args map[string]any, key string) (string, error) {
	raw, present := args[key]
	if !present || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", invalidArgument("%q must be a string, got %T", key, raw)
	}
	return strings.TrimSpace(s), nil
}

func optionalBool(args map[string]any, key string, fallback bool) (bool, error) {
	raw, present := args[key]
	if !present || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, invalidArgument("%q must be a boolean, got %q", key, v)
		}
		return b, nil
	default:
		return false, invalidArgument("%q must be a boolean, got %T", key, raw)
	}
}

// optionalStrings accepts a JSON array of strings or a comma separated string
func optionalStrings(args map[string]any, key string) ([]string, error) {
	raw, present := args[key]
	if !present || raw == nil {
		return nil, nil
	}

	var out []string
	switch v := raw.(type) {
	case []string:
		out = v
	case []any:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, invalidArgument("%q[%d] must be a string, got %T", key, i, item)
			}
			out = append(out, s)
		}
	case string:
		out = strings.Split(v, ",")
	default:
		return nil, invalidArgument("%q must be an array of strings, got %T", key, raw)
	}

	cleaned := make([]string, 0, len(out))
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned, nil
}

// optionalEnum reads a string that, when present, must be one of allowed
func optionalEnum(args map[string]any, key string, allowed []string) (string, error) {
	s, err := optionalString(args, key)
	if err != nil || s == "" {
		return s, err
	}
	s = strings.ToLower(s)
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", invalidArgument("%q must be one of %s, got %q", key, strings.Join(allowed, ", "), s)
}
