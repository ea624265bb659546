package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/orch-console/internal/normalize"
)

// Mode selects which conversation a console action belongs to.
type Mode string

const (
	ModeAsk     Mode = "ask"
	ModeBooking Mode = "booking"
	ModeUpload  Mode = "upload"
	ModePost    Mode = "post"
)

// Modes lists every console mode in display order.
var Modes = []Mode{ModeAsk, ModeBooking, ModeUpload, ModePost}

// ParseMode accepts a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("session: unknown mode %q", s)
}

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Gate is what a conversation log accepts next.
type Gate string

const (
	GateFreeText   Gate = "free_text"
	GateMCQPending Gate = "mcq_pending"
	GateTerminal   Gate = "terminal"
)

// Turn is one message in a conversation log.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Error   bool      `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// Log is an ordered conversation plus its input gate.
type Log struct {
	Turns      []Turn         `json:"turns"`
	Gate       Gate           `json:"gate"`
	PendingMCQ *normalize.MCQ `json:"pending_mcq,omitempty"`
}

func newLog() *Log {
	return &Log{Turns: []Turn{}, Gate: GateFreeText}
}

// Empty reports whether no turns were recorded.
func (l *Log) Empty() bool { return len(l.Turns) == 0 }

// Append records a turn stamped with now.
func (l *Log) Append(role Role, content string, isErr bool, now time.Time) {
	l.Turns = append(l.Turns, Turn{Role: role, Content: content, Error: isErr, At: now.UTC()})
}

// Clear drops all turns and reopens free-text input.
func (l *Log) Clear() {
	l.Turns = []Turn{}
	l.Gate = GateFreeText
	l.PendingMCQ = nil
}

// PostContext holds the consultation notes post-mode calls carry.
type PostContext struct {
	SlotID string `json:"slot_id"`
	Text   string `json:"post_text"`
}

// State is everything a console session remembers.
type State struct {
	Key       string       `json:"key"`
	SessionID string       `json:"session_id"`
	UserID    string       `json:"user_id"`
	Mode      Mode         `json:"mode"`
	SlotID    string       `json:"slot_id,omitempty"`
	Post      *PostContext `json:"post_context,omitempty"`

	AskLog     *Log `json:"ask_log"`
	BookingLog *Log `json:"booking_log"`
	UploadLog  *Log `json:"upload_log"`
	PostLog    *Log `json:"post_log"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a session in ask mode. An empty key gets a generated one.
func New(key string) *State {
	if key == "" {
		key = NewKey()
	}
	now := time.Now().UTC()
	st := &State{Key: key, Mode: ModeAsk, CreatedAt: now}
	st.Reset()
	return st
}

// NewKey returns a fresh console-side session handle.
func NewKey() string {
	return uuid.NewString()
}

// NewUserID returns "user_" followed by 8 characters of a fresh UUID.
func NewUserID() string {
	return "user_" + uuid.NewString()[:8]
}

// Reset regenerates the orchestration identifiers and clears every log,
// the slot and the post context. The key and mode survive.
func (s *State) Reset() {
	s.SessionID = uuid.NewString()
	s.UserID = NewUserID()
	s.SlotID = ""
	s.Post = nil
	s.AskLog = newLog()
	s.BookingLog = newLog()
	s.UploadLog = newLog()
	s.PostLog = newLog()
	s.Touch()
}

// Touch bumps UpdatedAt.
func (s *State) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Log returns the conversation log for a mode, creating it if a decoded
// session predates it.
func (s *State) Log(mode Mode) *Log {
	var slot **Log
	switch mode {
	case ModeBooking:
		slot = &s.BookingLog
	case ModeUpload:
		slot = &s.UploadLog
	case ModePost:
		slot = &s.PostLog
	default:
		slot = &s.AskLog
	}
	if *slot == nil {
		*slot = newLog()
	}
	return *slot
}
