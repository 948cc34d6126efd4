package maputil

import "fmt"

// StringValue returns the value at key rendered as a string.
// Returns false if the key is missing or its value is nil.
// Non-string scalars (numbers, booleans) are formatted with fmt.Sprint,
// which matches how loosely typed configuration files surface such values.
func StringValue(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// StringSlice converts a decoded sequence value into []string.
// Accepts []string directly or []any with stringable elements.
// Returns nil for any other type.
func StringSlice(v any) []string {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if item == nil {
				continue
			}
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	default:
		return nil
	}
}

// StringAnyMap converts a decoded mapping value into map[string]any.
// Accepts map[string]any directly or map[any]any with string-formattable
// keys (produced by some decoders). Returns nil for any other type.
func StringAnyMap(v any) map[string]any {
	switch val := v.(type) {
	case map[string]any:
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = item
		}
		return out
	default:
		return nil
	}
}
