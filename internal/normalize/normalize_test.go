package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNormalize(t *testing.T, raw string) Reply {
	t.Helper()
	r, err := Normalize([]byte(raw))
	require.NoError(t, err)
	return r
}

func TestNormalize_DoubleEncodedResponse(t *testing.T) {
	r := mustNormalize(t, `{"response": "{\"answer\": \"Take ibuprofen\", \"recommendations\": [\"Rest\"]}"}`)

	require.False(t, r.IsText())
	assert.Equal(t, map[string]any{
		"answer":          "Take ibuprofen",
		"recommendations": []any{"Rest"},
	}, r.Fields())
	assert.Equal(t, "Take ibuprofen", r.Answer())
	assert.Equal(t, []string{"Rest"}, r.Recommendations())
}

func TestNormalize_AnswerHoldingObject(t *testing.T) {
	r := mustNormalize(t, `{"answer": " {\"question_type\":\"MCQ\",\"mcq_options\":[\"A\",\"B\"]}"}`)

	mcq, ok := r.MCQ()
	require.True(t, ok)
	assert.Equal(t, DefaultMCQQuestion, mcq.Question)
	assert.Equal(t, []string{"A", "B"}, mcq.Options)
}

func TestNormalize_PlainAnswerNotUnwrapped(t *testing.T) {
	r := mustNormalize(t, `{"answer": "[1, 2] is a list"}`)
	assert.Equal(t, "[1, 2] is a list", r.Answer())
}

func TestUnwrap_ResponseHoldingAnyJSON(t *testing.T) {
	got, passes := Unwrap(map[string]any{"response": `["a","b"]`})
	assert.Equal(t, []any{"a", "b"}, got)
	assert.Equal(t, 2, passes)

	got, _ = Unwrap(map[string]any{"response": "7"})
	assert.Equal(t, json.Number("7"), got)

	got, _ = Unwrap(map[string]any{"response": "plain words"})
	assert.Equal(t, map[string]any{"response": "plain words"}, got)

	r := mustNormalize(t, `{"response":"[\"a\",\"b\"]"}`)
	require.True(t, r.IsText())
	assert.Equal(t, `["a","b"]`, r.Text())
}

func TestUnwrap_BoundedPasses(t *testing.T) {
	encode := func(s string) string {
		data, err := json.Marshal(s)
		require.NoError(t, err)
		return string(data)
	}
	v0 := `{"answer":"deep"}`
	v3 := encode(encode(encode(v0)))

	got, passes := Unwrap(v3)
	assert.Equal(t, MaxUnwrapPasses, passes)
	assert.Equal(t, v0, got, "fourth layer must be left encoded")

	r := FromValue(v3)
	assert.True(t, r.IsText())
	assert.Equal(t, v0, r.Text())
}

func TestUnwrap_StopsWhenNothingChanges(t *testing.T) {
	_, passes := Unwrap(map[string]any{"answer": "hello"})
	assert.Equal(t, 1, passes)

	_, passes = Unwrap(`{"response": "{\"answer\": \"x\"}"}`)
	assert.Equal(t, 2, passes)
}

func TestNormalize_EmptinessEquivalence(t *testing.T) {
	withEmpty := mustNormalize(t, `{"answer":"ok","warnings":[],"booking_context":{},"chat_summary":"","sources":null}`)
	without := mustNormalize(t, `{"answer":"ok"}`)

	assert.Equal(t, without.Fields(), withEmpty.Fields())
	assert.False(t, withEmpty.Has("warnings"))
	assert.Nil(t, withEmpty.BookingContext())
}

func TestNormalize_SummaryAliases(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{"assessment first", `{"assessment_summary":"A","booking_summary":"B","summary":"C"}`, "A"},
		{"booking when assessment empty", `{"assessment_summary":"","booking_summary":["B1","B2"],"summary":"C"}`, []any{"B1", "B2"}},
		{"plain summary", `{"summary":"C"}`, "C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustNormalize(t, tt.raw)
			assert.Equal(t, tt.want, r.Fields()["summary"])
			assert.NotContains(t, r.Fields(), "assessment_summary")
		})
	}

	r := mustNormalize(t, `{"booking_summary":["B1","B2"]}`)
	assert.Equal(t, []string{"B1", "B2"}, r.Summary())
}

func TestNormalize_Fallbacks(t *testing.T) {
	t.Run("scalar response", func(t *testing.T) {
		r := mustNormalize(t, `{"response":"plain words","trace_id":"t-1"}`)
		assert.Equal(t, map[string]any{"response": "plain words"}, r.Fields())
		assert.Equal(t, "plain words", r.Response())
	})

	t.Run("structured response recursion", func(t *testing.T) {
		r := mustNormalize(t, `{"response":{"answer":"inner","status":"complete"}}`)
		assert.Equal(t, "inner", r.Answer())
		assert.True(t, r.IsTerminal())
	})

	t.Run("structured response kept beside other fields", func(t *testing.T) {
		r := mustNormalize(t, `{"answer":"outer","response":{"debug":true}}`)
		assert.Equal(t, "outer", r.Answer())
		assert.Equal(t, map[string]any{"debug": true}, r.Fields()["response"])
	})

	t.Run("verbatim mapping", func(t *testing.T) {
		r := mustNormalize(t, `{"message":"unexpected shape","code":7}`)
		assert.Equal(t, map[string]any{"message": "unexpected shape", "code": json.Number("7")}, r.Fields())
	})

	t.Run("non-mapping becomes text", func(t *testing.T) {
		r := mustNormalize(t, `["a","b"]`)
		require.True(t, r.IsText())
		assert.Equal(t, `["a","b"]`, r.Text())

		r = mustNormalize(t, `"just text"`)
		assert.Equal(t, "just text", r.Text())
	})
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		`{"response": "{\"answer\": \"Take ibuprofen\", \"recommendations\": [\"Rest\"]}"}`,
		`{"question_type":"mcq","mcq_question":"Pick one","mcq_options":["A","B","A"]}`,
		`{"assessment_summary":"S","status":"completed","answer":""}`,
		`{"message":"unexpected","n":12345678901234567890}`,
		`{"answer":"outer","response":{"debug":true}}`,
	}
	for _, raw := range inputs {
		r := mustNormalize(t, raw)
		again := FromValue(r.Fields())
		assert.Equal(t, r, again, raw)
	}

	text := FromValue("not json at all")
	assert.Equal(t, text, FromValue(text.Text()))
}

func TestNormalize_NumbersAreLossless(t *testing.T) {
	r := mustNormalize(t, `{"answer":"ok","products":[12345678901234567890, 1.50]}`)
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"ok","products":[12345678901234567890, 1.50]}`, string(data))
	assert.Equal(t, []string{"12345678901234567890", "1.50"}, r.Products())
}

func TestNormalize_InvalidJSON(t *testing.T) {
	_, err := Normalize([]byte(`{"answer":`))
	assert.Error(t, err)

	_, err = Normalize([]byte(`{"a":1} trailing`))
	assert.Error(t, err)
}

func TestReply_JSONRoundTrip(t *testing.T) {
	for _, r := range []Reply{
		mustNormalize(t, `{"answer":"hi","success":false}`),
		TextReply("opaque"),
	} {
		data, err := json.Marshal(r)
		require.NoError(t, err)
		var back Reply
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, r, back)
		assert.Equal(t, string(data), back.String())
	}
}
