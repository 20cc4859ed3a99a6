package templates

import (
	"fmt"
	"maps"
)

// Data is the value bag passed to a template. Missing keys render as empty strings.
type Data map[string]any

// String returns the value under key formatted as a string.
func (d Data) String(key string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// With returns a copy of d with key set to value.
func (d Data) With(key string, value any) Data {
	out := make(Data, len(d)+1)
	maps.Copy(out, d)
	out[key] = value
	return out
}
