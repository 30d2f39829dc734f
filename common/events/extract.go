package events

import "math"

// Extraction helpers for decoded JSON objects. Payload field names vary by
// tracker version (snake_case and camelCase spellings coexist), so each
// accessor takes an ordered list of candidate keys and resolves first-match.
// Values of the wrong JSON type are treated as absent, never coerced.

// GetString returns the first string value found under keys.
func GetString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// StringOr returns the first string value found under keys, or def.
func StringOr(m map[string]any, def string, keys ...string) string {
	if s, ok := GetString(m, keys...); ok && s != "" {
		return s
	}
	return def
}

// GetInt returns the first numeric value found under keys, truncated to int.
func GetInt(m map[string]any, keys ...string) (int, bool) {
	if f, ok := GetFloat(m, keys...); ok {
		return int(f), true
	}
	return 0, false
}

// GetFloat returns the first numeric value found under keys.
// JSON numbers decode as float64; int values appear when maps are built in Go.
func GetFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch n := v.(type) {
			case float64:
				return n, true
			case int:
				return float64(n), true
			case int64:
				return float64(n), true
			}
		}
	}
	return 0, false
}

// GetBool returns the first boolean value found under keys.
func GetBool(m map[string]any, keys ...string) (bool, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if b, ok := v.(bool); ok {
				return b, true
			}
		}
	}
	return false, false
}

// GetMap returns the object value under key.
func GetMap(m map[string]any, key string) (map[string]any, bool) {
	if v, ok := m[key]; ok {
		if sub, ok := v.(map[string]any); ok {
			return sub, true
		}
	}
	return nil, false
}

// GetSlice returns the array value under key.
func GetSlice(m map[string]any, key string) ([]any, bool) {
	if v, ok := m[key]; ok {
		if arr, ok := v.([]any); ok {
			return arr, true
		}
	}
	return nil, false
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampUint16 bounds v to the unsigned 16-bit range. Screen and viewport
// dimensions are stored as UInt16 columns; oversized values clamp rather
// than overflow.
func ClampUint16(v int) int {
	return ClampInt(v, 0, math.MaxUint16)
}

// IntPtr, FloatPtr, StringPtr, BoolPtr build nullable record fields from
// optional extractions.

func IntPtr(m map[string]any, keys ...string) *int {
	if v, ok := GetInt(m, keys...); ok {
		return &v
	}
	return nil
}

func FloatPtr(m map[string]any, keys ...string) *float64 {
	if v, ok := GetFloat(m, keys...); ok {
		return &v
	}
	return nil
}

func StringPtr(m map[string]any, keys ...string) *string {
	if v, ok := GetString(m, keys...); ok {
		return &v
	}
	return nil
}

func BoolPtr(m map[string]any, keys ...string) *bool {
	if v, ok := GetBool(m, keys...); ok {
		return &v
	}
	return nil
}

// PageURL resolves the page URL from its two field spellings.
func PageURL(data map[string]any) string {
	return StringOr(data, "", "page_url", "url")
}
