package common

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/teemow/planner/internal/tools"
)

// RequiredString returns args[name] as a non-empty string.
func RequiredString(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", tools.MissingArgument(name)
	}
	s, ok := v.(string)
	if !ok {
		return "", tools.InvalidArgument(name, "expected a string, got %T", v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", tools.MissingArgument(name)
	}
	return s, nil
}

// OptionalString returns args[name] as a string. The second result is false
// when the argument is absent or null.
func OptionalString(args map[string]any, name string) (string, bool, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, tools.InvalidArgument(name, "expected a string, got %T", v)
	}
	return s, true, nil
}

// OptionalInt returns args[name] as an int, or def when the argument is
// absent. Whole-number floats and numeric strings are accepted since models
// are not consistent about quoting numbers.
func OptionalInt(args map[string]any, name string, def int) (int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}

	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, tools.InvalidArgument(name, "expected an integer, got %q", n.String())
		}
		return wholeFloat(name, f)
	case float64:
		return wholeFloat(name, n)
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, tools.InvalidArgument(name, "expected an integer, got %q", n)
		}
		return i, nil
	default:
		return 0, tools.InvalidArgument(name, "expected an integer, got %T", v)
	}
}

func wholeFloat(name string, f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, tools.InvalidArgument(name, "expected an integer, got %v", f)
	}
	return int(f), nil
}

// StringList returns args[name] as a list of non-empty strings. A single
// string is accepted as a one-element list.
func StringList(args map[string]any, name string) ([]string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}

	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return nil, nil
		}
		return []string{x}, nil
	case []string:
		return x, nil
	case []any:
		out := make([]string, 0, len(x))
		for i, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, tools.InvalidArgument(name, "element %d must be a string, got %T", i, item)
			}
			if strings.TrimSpace(s) == "" {
				return nil, tools.InvalidArgument(name, "element %d is empty", i)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, tools.InvalidArgument(name, "expected a string or a list of strings, got %T", v)
	}
}

// ResourceID returns the event id a tool call targets, if any.
func ResourceID(args map[string]any) string {
	for _, key := range []string{"event_id", "old_event_id"} {
		if s, ok := args[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
