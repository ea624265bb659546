package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/wolfman30/orch-console/internal/console"
)

var funcs = template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"join":  strings.Join,
	"upper": strings.ToUpper,
	"json": func(v any) string {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	},
	"bullets": func(items []string) string {
		var b strings.Builder
		for _, item := range items {
			b.WriteString("- ")
			b.WriteString(item)
			b.WriteByte('\n')
		}
		return b.String()
	},
	"flag": func(b *bool) string {
		if b == nil {
			return ""
		}
		return strconv.FormatBool(*b)
	},
}

const replyTemplate = `{{- if .Text}}{{.Text}}
{{end}}
{{- with .StructuredResponse}}{{json .}}
{{end}}
{{- with .MCQ}}
{{.Question}}
{{range $i, $o := .Options}}  {{inc $i}}) {{$o}}
{{end}}{{end}}
{{- with .Recommendations}}
Recommendations:
{{bullets .}}{{end}}
{{- with .NextSteps}}
Next Steps:
{{bullets .}}{{end}}
{{- with .AdditionalRecommendations}}
Additional Recommendations:
{{bullets .}}{{end}}
{{- with .Warnings}}
Warnings:
{{bullets .}}{{end}}
{{- with .Summary}}
Summary:
{{bullets .}}{{end}}
{{- with .ChatSummary}}
Chat Summary:
{{.}}
{{end}}
{{- with .Booking}}
Booking Details
  Service: {{.Service}}  Doctor: {{.Doctor}}
  Date: {{.Date}}  Time: {{.Time}}
{{end}}
{{- with .TreatmentPlan}}
Treatment Plan:
{{range $i, $p := .}}Plan {{inc $i}}: {{$p.Heading}}
{{with $p.SpecificationsText}}  {{.}}
{{end}}{{range $p.Specifications}}  - {{.Key}}: {{.Value}}
{{end}}{{with $p.Rationale}}  Rationale: {{.}}
{{end}}{{with $p.Steps}}  Steps:
{{range .}}    - {{.}}
{{end}}{{end}}{{with $p.EstimatedSessions}}  Estimated sessions: {{.}}
{{end}}{{with $p.FollowUp}}  Follow-up: {{.}}
{{end}}{{with $p.Buttons}}  [{{join . "] ["}}]
{{end}}{{end}}{{end}}
{{- with .Products}}
Products:
{{bullets .}}{{end}}
{{- with .LabTests}}
Lab Tests:
{{bullets .}}{{end}}
{{- with .Progress}}Assessment progress: {{.}}
{{end}}
{{- with .Sources}}Sources: {{join . ", "}}
{{end}}
{{- with .Success}}Success: {{flag .}}
{{end}}`

const uploadTemplate = `{{- if .Structured}}Total Files: {{.TotalProcessed}}
Successfully Processed: {{.TotalSuccessful}}
Success Rate: {{printf "%.1f" .SuccessRate}}%
{{range $i, $f := .ProcessedFiles}}
File {{inc $i}}: {{$f.Name}}
  {{if $f.Success}}Successfully Processed{{else}}Processing Failed{{end}}
  File Type: {{upper (or $f.FileType "Unknown")}}
  Healthcare Related: {{if $f.IsHealthcareRelated}}Yes{{else}}No{{end}}
{{with $f.DocType}}  Doc Type: {{.}}
{{end}}  File URL: {{or $f.FileURL "N/A"}}
{{with $f.Summary}}  Summary: {{.}}
{{end}}{{with $f.Description}}  Description: {{.}}
{{end}}{{with $f.Error}}  Error: {{.}}
{{end}}{{end}}{{else}}Processing Result:
{{.RawText}}
{{end}}`

// Renderer renders small text templates for terminal output.
type Renderer struct{}

// Render compiles the provided template text with strict missing-key semantics.
func (Renderer) Render(name, tmpl string, data any) (string, error) {
	if tmpl == "" {
		return "", fmt.Errorf("render: template text required")
	}
	t, err := template.New(name).Option("missingkey=error").Funcs(funcs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("render: parse: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render: execute: %w", err)
	}
	return buf.String(), nil
}

// Text renders a reply view for the terminal.
func Text(v View) (string, error) {
	return Renderer{}.Render("reply", replyTemplate, v)
}

// UploadText renders an upload summary for the terminal.
func UploadText(r console.UploadResult) (string, error) {
	return Renderer{}.Render("upload", uploadTemplate, r)
}
