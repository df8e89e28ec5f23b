// Package normalize converts untrusted agent payloads into typed records.
// Nothing in this package returns an error: absent or mistyped fields
// collapse to zero values.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Parse coerces an agent result into a mapping. Objects are returned as-is,
// strings and raw bytes are decoded as JSON, and anything else (including
// JSON that does not decode to an object) yields an empty mapping.
func Parse(raw any) map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		if v == nil {
			return map[string]any{}
		}
		return v
	case string:
		return decodeObject([]byte(v))
	case []byte:
		return decodeObject(v)
	case json.RawMessage:
		return decodeObject(v)
	default:
		return map[string]any{}
	}
}

func decodeObject(data []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

// Object returns m[key] when it is an object, else nil.
func Object(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

// List returns m[key] when it is an array, else nil.
func List(m map[string]any, key string) []any {
	v, _ := m[key].([]any)
	return v
}

// String returns m[key] as a string. Numbers are rendered in their shortest
// decimal form; every other type yields "".
func String(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// Float returns m[key] as a float64. Numeric strings are accepted; every
// other type, NaN and infinities yield 0.
func Float(m map[string]any, key string) float64 {
	var f float64
	switch v := m[key].(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case json.Number:
		f, _ = v.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int truncates Float(m, key) toward zero, clamped to the 32-bit range so
// oversized agent numbers never overflow the conversion.
func Int(m map[string]any, key string) int {
	f := Float(m, key)
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// Confidence reads a confidence score clamped to 0..100.
func Confidence(m map[string]any, key string) int {
	return min(max(Int(m, key), 0), 100)
}

// OptionalInt is like Int but returns nil when the field is absent or not
// numeric.
func OptionalInt(m map[string]any, key string) *int {
	switch v := m[key].(type) {
	case float64, int, json.Number:
		n := Int(m, key)
		return &n
	case string:
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			n := Int(m, key)
			return &n
		}
	}
	return nil
}

// Bool returns m[key] when it is a boolean, else false.
func Bool(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

// Strings returns the string items of m[key]. Non-string items are dropped.
func Strings(m map[string]any, key string) []string {
	items := List(m, key)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Objects returns the object items of m[key]. Non-object items are dropped.
func Objects(m map[string]any, key string) []map[string]any {
	items := List(m, key)
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
