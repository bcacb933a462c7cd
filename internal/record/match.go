package record

import "strings"

// Match reports whether payload contains value.
//
// With arrayKey set, only payload[arrayKey] is consulted and it must be an
// array holding an element equal to value. Otherwise the search walks nested
// mappings for an entry named key whose value equals value, and also accepts
// any array (under any key) that holds value. Arrays are checked for
// membership only; mappings inside arrays are not searched.
//
// All comparisons use the case-insensitive string form of both sides. A JSON
// null leaf renders as "null", so it is matched by "null" and never by "none".
func Match(payload map[string]any, key string, value any, arrayKey string) bool {
	want := strings.ToLower(String(value))

	if arrayKey != "" {
		items, ok := asSlice(payload[arrayKey])
		return ok && containsFold(items, want)
	}
	return matchKey(payload, key, want)
}

func matchKey(payload map[string]any, key, want string) bool {
	for k, v := range payload {
		if k == key && strings.ToLower(String(v)) == want {
			return true
		}
		if nested, ok := asMap(v); ok {
			if matchKey(nested, key, want) {
				return true
			}
			continue
		}
		if items, ok := asSlice(v); ok && containsFold(items, want) {
			return true
		}
	}
	return false
}

func containsFold(items []any, want string) bool {
	for _, item := range items {
		if strings.ToLower(String(item)) == want {
			return true
		}
	}
	return false
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Record:
		return t, true
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
