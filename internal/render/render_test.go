package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/orch-console/internal/console"
	"github.com/wolfman30/orch-console/internal/normalize"
)

func reply(t *testing.T, raw string) normalize.Reply {
	t.Helper()
	r, err := normalize.Normalize([]byte(raw))
	require.NoError(t, err)
	return r
}

func TestFromReply_BookingCard(t *testing.T) {
	v := FromReply(reply(t, `{"answer":"Booked","booking_context":{"service":"Botox","date":"2026-03-01"}}`))
	require.NotNil(t, v.Booking)
	assert.Equal(t, BookingCard{Service: "Botox", Doctor: "N/A", Date: "2026-03-01", Time: "N/A"}, *v.Booking)

	v = FromReply(reply(t, `{"answer":"x","booking_context":{"doctor":""}}`))
	assert.Nil(t, v.Booking)
}

func TestFromReply_TextSources(t *testing.T) {
	assert.Equal(t, "hello", FromReply(reply(t, `{"answer":"hello","response":"ignored"}`)).Text)
	assert.Equal(t, "legacy", FromReply(reply(t, `{"response":"legacy"}`)).Text)

	v := FromReply(reply(t, `{"recommendations":["a"],"response":{"k":"v"}}`))
	assert.Empty(t, v.Text)
	assert.Equal(t, map[string]any{"k": "v"}, v.StructuredResponse)

	v = FromReply(normalize.TextReply("opaque"))
	assert.True(t, v.IsText)
	assert.Equal(t, "opaque", v.Text)
}

func TestFromReply_TreatmentPlanHeading(t *testing.T) {
	v := FromReply(reply(t, `{"treatment_plan":[{"rationale":"why"},{"service":"PRP"}]}`))
	require.Len(t, v.TreatmentPlan, 2)
	assert.Equal(t, "Treatment", v.TreatmentPlan[0].Heading)
	assert.Equal(t, "PRP", v.TreatmentPlan[1].Heading)
}

func TestFromContent(t *testing.T) {
	v := FromContent(`{"answer":"stored"}`)
	assert.Equal(t, "stored", v.Text)

	v = FromContent("Error: HTTP 500: boom")
	assert.True(t, v.IsText)
	assert.Equal(t, "Error: HTTP 500: boom", v.Text)
}

func TestText(t *testing.T) {
	v := FromReply(reply(t, `{
		"answer":"Here is your plan",
		"question_type":"mcq","mcq_question":"Pick one","mcq_options":["A","B"],
		"warnings":["Avoid sun"],
		"assessment_summary":["Dry skin"],
		"status":"in_progress",
		"success":false,
		"treatment_plan":[{"service":"Peel","steps":["cleanse"],"estimated_sessions":2,"buttons":[{"label":"Book"}]}]
	}`))

	out, err := Text(v)
	require.NoError(t, err)
	assert.Contains(t, out, "Here is your plan\n")
	assert.Contains(t, out, "Pick one\n  1) A\n  2) B\n")
	assert.Contains(t, out, "Warnings:\n- Avoid sun\n")
	assert.Contains(t, out, "Summary:\n- Dry skin\n")
	assert.Contains(t, out, "Plan 1: Peel\n")
	assert.Contains(t, out, "    - cleanse\n")
	assert.Contains(t, out, "Estimated sessions: 2\n")
	assert.Contains(t, out, "[Book]")
	assert.Contains(t, out, "Assessment progress: in_progress\n")
	assert.Contains(t, out, "Success: false\n")
	assert.NotContains(t, out, "Recommendations:")
	assert.NotContains(t, out, "Rationale")
}

func TestUploadText(t *testing.T) {
	out, err := UploadText(console.UploadResult{
		ProcessedFiles: []normalize.ProcessedFile{
			{FileURL: "https://x/scan.pdf", Success: true, FileType: "pdf", IsHealthcareRelated: true, Summary: "CBC"},
			{Success: false, Error: "unreadable"},
		},
		TotalProcessed:  2,
		TotalSuccessful: 1,
		SuccessRate:     50,
		Structured:      true,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Success Rate: 50.0%")
	assert.Contains(t, out, "File 1: scan.pdf\n  Successfully Processed\n  File Type: PDF\n  Healthcare Related: Yes\n")
	assert.Contains(t, out, "File 2: Unknown\n  Processing Failed\n  File Type: UNKNOWN\n")
	assert.Contains(t, out, "  Error: unreadable\n")

	out, err = UploadText(console.UploadResult{RawText: "queued"})
	require.NoError(t, err)
	assert.Equal(t, "Processing Result:\nqueued\n", out)
}

func TestRendererRender(t *testing.T) {
	r := Renderer{}
	out, err := r.Render("greet", "Hello {{.Name}}", map[string]string{"Name": "Patient"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Patient", out)

	_, err = r.Render("bad", "Hello {{.Missing}}", map[string]string{"Name": "x"})
	assert.Error(t, err)

	_, err = r.Render("empty", "", nil)
	assert.Error(t, err)
}
