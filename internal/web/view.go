package web

import (
	"encoding/json"
	"time"

	"github.com/wolfman30/orch-console/internal/console"
	"github.com/wolfman30/orch-console/internal/normalize"
	"github.com/wolfman30/orch-console/internal/render"
	"github.com/wolfman30/orch-console/internal/session"
)

// TurnView is one rendered turn. Assistant replies carry the display
// model; upload runs carry their summary instead.
type TurnView struct {
	Role    session.Role          `json:"role"`
	Content string                `json:"content"`
	Error   bool                  `json:"error,omitempty"`
	At      time.Time             `json:"at"`
	View    *render.View          `json:"view,omitempty"`
	Upload  *console.UploadResult `json:"upload,omitempty"`
}

// LogView is a conversation log as the page draws it.
type LogView struct {
	Gate       session.Gate   `json:"gate"`
	PendingMCQ *normalize.MCQ `json:"pending_mcq,omitempty"`
	Notice     string         `json:"notice,omitempty"`
	Turns      []TurnView     `json:"turns"`
}

// SessionView is the body of every session API response.
type SessionView struct {
	SessionID   string                `json:"session_id"`
	UserID      string                `json:"user_id"`
	Mode        session.Mode          `json:"mode"`
	SlotID      string                `json:"slot_id,omitempty"`
	PostContext *session.PostContext  `json:"post_context,omitempty"`
	Logs        map[string]LogView    `json:"logs"`
	Notice      string                `json:"notice,omitempty"`
	Error       string                `json:"error,omitempty"`
	Upload      *console.UploadResult `json:"upload,omitempty"`
}

func newSessionView(st *session.State) SessionView {
	v := SessionView{
		SessionID:   st.SessionID,
		UserID:      st.UserID,
		Mode:        st.Mode,
		SlotID:      st.SlotID,
		PostContext: st.Post,
		Logs:        make(map[string]LogView, len(session.Modes)),
	}
	for _, mode := range session.Modes {
		v.Logs[string(mode)] = newLogView(mode, st.Log(mode))
	}
	return v
}

func newLogView(mode session.Mode, log *session.Log) LogView {
	lv := LogView{Gate: log.Gate, PendingMCQ: log.PendingMCQ, Turns: make([]TurnView, 0, len(log.Turns))}
	if log.Gate == session.GateTerminal {
		lv.Notice = console.CompleteNotice
		if mode == session.ModeBooking {
			lv.Notice = console.BookingCompleteNotice
		}
	}
	for _, turn := range log.Turns {
		tv := TurnView{Role: turn.Role, Content: turn.Content, Error: turn.Error, At: turn.At}
		if turn.Role == session.RoleAssistant && !turn.Error {
			if mode == session.ModeUpload {
				var res console.UploadResult
				if err := json.Unmarshal([]byte(turn.Content), &res); err == nil {
					tv.Upload = &res
				}
			} else {
				view := render.FromContent(turn.Content)
				tv.View = &view
			}
		}
		lv.Turns = append(lv.Turns, tv)
	}
	return lv
}
