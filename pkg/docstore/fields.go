package docstore

import (
	"fmt"
	"time"
)

// FieldReader reads loosely typed document fields and remembers which ones
// were present with an unexpected type
type FieldReader struct {
	data map[string]interface{}
	bad  []string
}

func NewFieldReader(data map[string]interface{}) *FieldReader {
	return &FieldReader{data: data}
}

// String reads an optional string. Non-string values are rendered with %v.
func (r *FieldReader) String(key string) string {
	v, ok := r.data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	r.bad = append(r.bad, key)
	return fmt.Sprintf("%v", v)
}

// Bool reads an optional boolean, defaulting to false
func (r *FieldReader) Bool(key string) bool {
	v, ok := r.data[key]
	if !ok || v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	r.bad = append(r.bad, key)
	return false
}

// Time reads a timestamp. Native timestamps, epoch seconds and RFC3339 strings
// (written by older clients) are accepted.
func (r *FieldReader) Time(key string) (time.Time, bool) {
	v, ok := r.data[key]
	if !ok || v == nil {
		return time.Time{}, false
	}

	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	case int64:
		return time.Unix(t, 0).UTC(), true
	case float64:
		return time.Unix(int64(t), 0).UTC(), true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
	}
	r.bad = append(r.bad, key)
	return time.Time{}, false
}

// Malformed lists the keys read so far that had an unexpected type
func (r *FieldReader) Malformed() []string {
	return r.bad
}
