package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DefaultMCQQuestion is shown (and sent back) when the server omits mcq_question.
const DefaultMCQQuestion = "Please select an option:"

// MCQ is a pending multiple-choice question.
type MCQ struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// BookingContext is the booking card shown alongside booking replies.
type BookingContext struct {
	Service string `json:"service,omitempty"`
	Doctor  string `json:"doctor,omitempty"`
	Date    string `json:"date,omitempty"`
	Time    string `json:"time,omitempty"`
}

// KV is one specification entry of a plan item, kept in key order.
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PlanItem is one entry of a post-consultation treatment plan. Empty fields
// were absent on the wire.
type PlanItem struct {
	Service            string   `json:"service,omitempty"`
	SpecificationsText string   `json:"specifications_text,omitempty"`
	Specifications     []KV     `json:"specifications,omitempty"`
	Rationale          string   `json:"rationale,omitempty"`
	Steps              []string `json:"steps,omitempty"`
	EstimatedSessions  string   `json:"estimated_sessions,omitempty"`
	FollowUp           string   `json:"follow_up,omitempty"`
	Buttons            []string `json:"buttons,omitempty"`
}

const maxPlanButtons = 3

func (r Reply) field(name string) (any, bool) {
	if r.isText || r.fields == nil {
		return nil, false
	}
	v, ok := r.fields[name]
	if !ok || isEmpty(v) {
		return nil, false
	}
	return v, true
}

func (r Reply) stringField(name string) string {
	v, ok := r.field(name)
	if !ok {
		return ""
	}
	return itemString(v)
}

func (r Reply) listField(name string) []string {
	v, ok := r.field(name)
	if !ok {
		return nil
	}
	return stringList(v)
}

// Answer returns the answer text.
func (r Reply) Answer() string { return r.stringField("answer") }

// Response returns the legacy response field rendered as text.
func (r Reply) Response() string { return r.stringField("response") }

// QuestionType returns question_type trimmed and lower-cased.
func (r Reply) QuestionType() string {
	return strings.ToLower(strings.TrimSpace(r.stringField("question_type")))
}

// MCQ returns the multiple-choice question when question_type is "mcq" and
// at least one non-blank option exists. Options keep server order and
// duplicates; blank labels are dropped since they cannot be sent back.
func (r Reply) MCQ() (MCQ, bool) {
	if r.QuestionType() != "mcq" {
		return MCQ{}, false
	}
	var options []string
	for _, option := range r.listField("mcq_options") {
		if strings.TrimSpace(option) != "" {
			options = append(options, option)
		}
	}
	if len(options) == 0 {
		return MCQ{}, false
	}
	question := strings.TrimSpace(r.stringField("mcq_question"))
	if question == "" {
		question = DefaultMCQQuestion
	}
	return MCQ{Question: question, Options: options}, true
}

// BookingContext returns the booking card, or nil when none of service,
// doctor, date or time is present.
func (r Reply) BookingContext() *BookingContext {
	v, ok := r.field("booking_context")
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	bc := BookingContext{
		Service: mapString(m, "service"),
		Doctor:  mapString(m, "doctor"),
		Date:    mapString(m, "date"),
		Time:    mapString(m, "time"),
	}
	if bc == (BookingContext{}) {
		return nil
	}
	return &bc
}

// Progress returns assessment_progress, falling back to status.
func (r Reply) Progress() string {
	if p := r.stringField("assessment_progress"); p != "" {
		return p
	}
	return r.stringField("status")
}

// IsTerminal reports whether the conversation has reached a completion state.
func (r Reply) IsTerminal() bool {
	switch strings.ToLower(strings.TrimSpace(r.Progress())) {
	case "end", "complete", "completed":
		return true
	default:
		return false
	}
}

func (r Reply) Recommendations() []string { return r.listField("recommendations") }
func (r Reply) NextSteps() []string       { return r.listField("next_steps") }
func (r Reply) Warnings() []string        { return r.listField("warnings") }
func (r Reply) Products() []string        { return r.listField("products") }
func (r Reply) LabTests() []string        { return r.listField("lab_tests") }
func (r Reply) Sources() []string         { return r.listField("sources") }

func (r Reply) AdditionalRecommendations() []string {
	return r.listField("additional_recommendations")
}

// ChatSummary returns chat_summary as text.
func (r Reply) ChatSummary() string { return r.stringField("chat_summary") }

// Summary returns the summary as lines: a list is returned item by item, a
// scalar as a single entry.
func (r Reply) Summary() []string {
	v, ok := r.field("summary")
	if !ok {
		return nil
	}
	return stringList(v)
}

// Success returns the success flag, or nil when absent.
func (r Reply) Success() *bool {
	v, ok := r.field("success")
	if !ok {
		return nil
	}
	b := truthy(v)
	return &b
}

// TreatmentPlan returns plan items in server order. Items that are not
// mappings are skipped.
func (r Reply) TreatmentPlan() []PlanItem {
	v, ok := r.field("treatment_plan")
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]PlanItem, 0, len(list))
	for _, raw := range list {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, planItem(m))
	}
	return items
}

func planItem(m map[string]any) PlanItem {
	item := PlanItem{
		Service:            mapString(m, "service"),
		SpecificationsText: mapString(m, "specifications_text"),
		Rationale:          mapString(m, "rationale"),
		EstimatedSessions:  mapString(m, "estimated_sessions"),
		FollowUp:           mapString(m, "follow_up"),
	}
	if specs, ok := m["specifications"].(map[string]any); ok && len(specs) > 0 {
		keys := make([]string, 0, len(specs))
		for k := range specs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			item.Specifications = append(item.Specifications, KV{Key: k, Value: itemString(specs[k])})
		}
	}
	if steps, ok := m["steps"]; ok && !isEmpty(steps) {
		item.Steps = stringList(steps)
	}
	if buttons, ok := m["buttons"].([]any); ok {
		for _, b := range buttons {
			if len(item.Buttons) == maxPlanButtons {
				break
			}
			label := "Action"
			switch t := b.(type) {
			case map[string]any:
				if l := mapString(t, "label"); l != "" {
					label = l
				}
			case string:
				if t != "" {
					label = t
				}
			}
			item.Buttons = append(item.Buttons, label)
		}
	}
	return item
}

func mapString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || isEmpty(v) {
		return ""
	}
	return itemString(v)
}

// stringList renders a list value item by item; a scalar becomes one entry.
func stringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, itemString(item))
		}
		return out
	case nil:
		return nil
	default:
		return []string{itemString(t)}
	}
}

// itemString renders strings verbatim and anything else as compact JSON.
func itemString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

// truthy follows the loose truthiness the orchestrator relies on: booleans
// as-is, non-zero numbers, non-empty strings and collections.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
