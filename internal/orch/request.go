package orch

// Request is the JSON body posted to the orchestration endpoint. Optional
// fields are omitted from the wire when empty so the booking bootstrap call
// carries no "input" key at all.
type Request struct {
	SessionID            string   `json:"session_id"`
	UserID               string   `json:"user_id"`
	Input                string   `json:"input,omitempty"`
	SlotID               string   `json:"slot_id,omitempty"`
	PostConsultationText string   `json:"post_consultation_text,omitempty"`
	FileURLs             []string `json:"file_urls,omitempty"`

	MCQSelectedOption string `json:"mcq_selected_option,omitempty"`
	MCQSelectedIndex  *int   `json:"mcq_selected_index,omitempty"`
	MCQQuestion       string `json:"mcq_question,omitempty"`
}

// Request kinds used for logs and metrics labels.
const (
	KindAsk              = "ask"
	KindBooking          = "booking"
	KindBookingBootstrap = "booking_bootstrap"
	KindPost             = "post"
	KindUpload           = "upload"
	KindMCQ              = "mcq"
)

// Kind classifies the request by the fields it carries.
func (r Request) Kind() string {
	switch {
	case len(r.FileURLs) > 0:
		return KindUpload
	case r.MCQSelectedIndex != nil || r.MCQSelectedOption != "":
		return KindMCQ
	case r.PostConsultationText != "":
		return KindPost
	case r.SlotID != "" && r.Input == "":
		return KindBookingBootstrap
	case r.SlotID != "":
		return KindBooking
	default:
		return KindAsk
	}
}
