// Package render turns normalized replies into the display model shared by
// the browser console and the terminal client.
package render

import (
	"github.com/wolfman30/orch-console/internal/normalize"
)

const notAvailable = "N/A"

// BookingCard is the booking context box. Missing values read "N/A".
type BookingCard struct {
	Service string `json:"service"`
	Doctor  string `json:"doctor"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// PlanItem is a treatment plan entry with its heading resolved.
type PlanItem struct {
	Heading string `json:"heading"`
	normalize.PlanItem
}

// View is everything a reply contributes to the screen. Empty fields are
// not rendered.
type View struct {
	IsText bool   `json:"is_text,omitempty"`
	Text   string `json:"text,omitempty"`
	// StructuredResponse holds a non-text legacy response shown as JSON.
	StructuredResponse any `json:"structured_response,omitempty"`

	MCQ                       *normalize.MCQ `json:"mcq,omitempty"`
	Recommendations           []string       `json:"recommendations,omitempty"`
	NextSteps                 []string       `json:"next_steps,omitempty"`
	AdditionalRecommendations []string       `json:"additional_recommendations,omitempty"`
	Warnings                  []string       `json:"warnings,omitempty"`
	Summary                   []string       `json:"summary,omitempty"`
	ChatSummary               string         `json:"chat_summary,omitempty"`
	Booking                   *BookingCard   `json:"booking,omitempty"`
	Progress                  string         `json:"progress,omitempty"`
	Sources                   []string       `json:"sources,omitempty"`
	Success                   *bool          `json:"success,omitempty"`
	Products                  []string       `json:"products,omitempty"`
	LabTests                  []string       `json:"lab_tests,omitempty"`
	TreatmentPlan             []PlanItem     `json:"treatment_plan,omitempty"`

	Raw map[string]any `json:"raw,omitempty"`
}

// FromReply builds the view for one assistant reply.
func FromReply(r normalize.Reply) View {
	if r.IsText() {
		return View{IsText: true, Text: r.Text()}
	}

	v := View{
		Text:                      r.Answer(),
		Recommendations:           r.Recommendations(),
		NextSteps:                 r.NextSteps(),
		AdditionalRecommendations: r.AdditionalRecommendations(),
		Warnings:                  r.Warnings(),
		Summary:                   r.Summary(),
		ChatSummary:               r.ChatSummary(),
		Progress:                  r.Progress(),
		Sources:                   r.Sources(),
		Success:                   r.Success(),
		Products:                  r.Products(),
		LabTests:                  r.LabTests(),
		Raw:                       r.Fields(),
	}
	if v.Text == "" {
		if resp, ok := v.Raw["response"]; ok {
			if s, isString := resp.(string); isString {
				v.Text = s
			} else {
				v.StructuredResponse = resp
			}
		}
	}
	if mcq, ok := r.MCQ(); ok {
		v.MCQ = &mcq
	}
	if bc := r.BookingContext(); bc != nil {
		v.Booking = &BookingCard{
			Service: orNA(bc.Service),
			Doctor:  orNA(bc.Doctor),
			Date:    orNA(bc.Date),
			Time:    orNA(bc.Time),
		}
	}
	for _, item := range r.TreatmentPlan() {
		heading := item.Service
		if heading == "" {
			heading = "Treatment"
		}
		v.TreatmentPlan = append(v.TreatmentPlan, PlanItem{Heading: heading, PlanItem: item})
	}
	return v
}

// FromContent rebuilds the view of a stored assistant turn.
func FromContent(content string) View {
	var r normalize.Reply
	if err := r.UnmarshalJSON([]byte(content)); err != nil {
		return View{IsText: true, Text: content}
	}
	return FromReply(r)
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
