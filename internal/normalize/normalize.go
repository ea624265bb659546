package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// canonicalFields is the allow-list copied from a server mapping, in display
// order. "status" and "response" are legacy names still sent by older
// orchestrator builds.
var canonicalFields = []string{
	"answer",
	"question_type",
	"mcq_question",
	"mcq_options",
	"booking_context",
	"assessment_progress",
	"recommendations",
	"next_steps",
	"sources",
	"success",
	"treatment_plan",
	"additional_recommendations",
	"warnings",
	"products",
	"lab_tests",
	"chat_summary",
	"summary",
	"status",
	"response",
}

// fieldSources lists, in priority order, the server keys that feed a
// canonical field. Fields without an entry read only their own key.
var fieldSources = map[string][]string{
	"summary": {"assessment_summary", "booking_summary", "summary"},
}

// Reply is a normalized orchestration response: either opaque text or a
// mapping restricted to canonical fields (or, failing that, the server
// mapping verbatim).
type Reply struct {
	fields map[string]any
	text   string
	isText bool
}

// TextReply wraps opaque text content.
func TextReply(text string) Reply {
	return Reply{text: text, isText: true}
}

// Normalize decodes raw JSON and normalizes it.
func Normalize(raw []byte) (Reply, error) {
	v, err := decodeJSON(raw)
	if err != nil {
		return Reply{}, fmt.Errorf("normalize: decode response: %w", err)
	}
	return FromValue(v), nil
}

// Decode parses one JSON value with numbers kept as json.Number.
func Decode(raw []byte) (any, error) {
	v, err := decodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize: decode response: %w", err)
	}
	return v, nil
}

// FromValue unwraps nested encodings in v and projects the result.
func FromValue(v any) Reply {
	unwrapped, _ := Unwrap(v)
	return project(unwrapped)
}

func project(v any) Reply {
	m, ok := v.(map[string]any)
	if !ok {
		if s, ok := v.(string); ok {
			return TextReply(s)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return TextReply(fmt.Sprint(v))
		}
		return TextReply(string(data))
	}

	out := make(map[string]any, len(canonicalFields))
	for _, field := range canonicalFields {
		if field == "response" {
			continue
		}
		sources, ok := fieldSources[field]
		if !ok {
			sources = []string{field}
		}
		for _, key := range sources {
			if value, ok := m[key]; ok && !isEmpty(value) {
				out[field] = value
				break
			}
		}
	}

	response, hasResponse := m["response"]
	if hasResponse && !isEmpty(response) {
		inner, structured := response.(map[string]any)
		switch {
		case structured && len(out) == 0:
			// The whole reply lives one level down.
			return FromValue(inner)
		default:
			out["response"] = response
		}
	}

	if len(out) == 0 {
		return Reply{fields: copyMap(m)}
	}
	return Reply{fields: out}
}

// IsText reports whether the reply is opaque text rather than a mapping.
func (r Reply) IsText() bool { return r.isText }

// Text returns the opaque text content (empty for mapping replies).
func (r Reply) Text() string { return r.text }

// Fields returns a shallow copy of the projected mapping.
func (r Reply) Fields() map[string]any {
	if r.isText {
		return nil
	}
	return copyMap(r.fields)
}

// Has reports whether a canonical field is present.
func (r Reply) Has(field string) bool {
	if r.isText {
		return false
	}
	_, ok := r.fields[field]
	return ok
}

// MarshalJSON encodes text replies as a JSON string and mapping replies as an object.
func (r Reply) MarshalJSON() ([]byte, error) {
	if r.isText {
		return json.Marshal(r.text)
	}
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.fields)
}

// UnmarshalJSON restores a reply stored with MarshalJSON without re-projecting it.
func (r *Reply) UnmarshalJSON(data []byte) error {
	v, err := decodeJSON(bytes.TrimSpace(data))
	if err != nil {
		return fmt.Errorf("normalize: decode stored reply: %w", err)
	}
	switch t := v.(type) {
	case map[string]any:
		*r = Reply{fields: t}
	case string:
		*r = TextReply(t)
	default:
		*r = project(t)
	}
	return nil
}

// String returns the stored form used for conversation turns.
func (r Reply) String() string {
	data, err := r.MarshalJSON()
	if err != nil {
		return r.text
	}
	return string(data)
}

// isEmpty treats null, "", [] and {} as absent.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
