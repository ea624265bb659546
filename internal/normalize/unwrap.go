package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// MaxUnwrapPasses bounds Unwrap so self-referential payloads terminate.
const MaxUnwrapPasses = 3

// Unwrap peels double-encoded payloads: a string holding JSON, a mapping
// whose "response" string holds any JSON value, or a mapping whose
// "{"-prefixed "answer" string holds a JSON object.
// It returns the innermost value reached and the number of passes made.
func Unwrap(v any) (any, int) {
	current := v
	passes := 0
	for passes < MaxUnwrapPasses {
		passes++
		changed := false

		if s, ok := current.(string); ok {
			parsed, err := decodeJSON([]byte(s))
			if err != nil {
				break
			}
			current = parsed
			changed = true
		}

		if m, ok := current.(map[string]any); ok {
			if inner, ok := m["response"].(string); ok {
				if parsed, err := decodeJSON([]byte(inner)); err == nil {
					current = parsed
					continue
				}
			}
			if inner, ok := m["answer"].(string); ok && strings.HasPrefix(strings.TrimSpace(inner), "{") {
				if obj, ok := decodeObject(inner); ok {
					current = obj
					continue
				}
			}
		}

		if !changed {
			break
		}
	}
	return current, passes
}

func decodeObject(s string) (map[string]any, bool) {
	v, err := decodeJSON([]byte(s))
	if err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

var errTrailingData = errors.New("normalize: trailing data after JSON value")

// decodeJSON decodes exactly one JSON value, keeping numbers as json.Number.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return v, nil
}
