package console

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/orch-console/internal/normalize"
	"github.com/wolfman30/orch-console/internal/observability/metrics"
	"github.com/wolfman30/orch-console/internal/orch"
	"github.com/wolfman30/orch-console/internal/session"
	"github.com/wolfman30/orch-console/pkg/logging"
)

// Completion notices shown when a log locks.
const (
	BookingCompleteNotice = "Pre-consultation is complete. Summary has been saved."
	CompleteNotice        = "Conversation is complete. Start a new session to continue."
)

// Sender issues one orchestration call.
type Sender interface {
	Send(ctx context.Context, req orch.Request) (json.RawMessage, error)
}

// Result describes what a controller action did to a conversation log.
type Result struct {
	Mode   session.Mode    `json:"mode"`
	Called bool            `json:"called"`
	Reply  normalize.Reply `json:"reply"`
	Gate   session.Gate    `json:"gate"`
	Notice string          `json:"notice,omitempty"`
}

// Controller drives the ask, booking and post conversations and the upload
// flow. It holds no session state; every call takes the session explicitly.
type Controller struct {
	sender   Sender
	resolver URLResolver
	metrics  *metrics.OrchMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewController wires a controller to an orchestration sender.
func NewController(sender Sender, m *metrics.OrchMetrics, logger *logging.Logger) *Controller {
	if sender == nil {
		panic("console: sender cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{
		sender:  sender,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// WithURLResolver enables s3:// references in uploads.
func (c *Controller) WithURLResolver(r URLResolver) *Controller {
	c.resolver = r
	return c
}

// Ask submits free text to the ask conversation.
func (c *Controller) Ask(ctx context.Context, st *session.State, text string) (Result, error) {
	text, err := c.checkFreeText(st, session.ModeAsk, text)
	if err != nil {
		return Result{}, err
	}
	req := c.baseRequest(st)
	req.Input = text
	return c.converse(ctx, st, session.ModeAsk, text, req)
}

// Booking submits free text to the booking conversation for the current slot.
func (c *Controller) Booking(ctx context.Context, st *session.State, text string) (Result, error) {
	if st.SlotID == "" {
		return Result{}, ErrSlotRequired
	}
	text, err := c.checkFreeText(st, session.ModeBooking, text)
	if err != nil {
		return Result{}, err
	}
	req := c.baseRequest(st)
	req.SlotID = st.SlotID
	req.Input = text
	return c.converse(ctx, st, session.ModeBooking, text, req)
}

// Post submits free text to the post-consultation conversation.
func (c *Controller) Post(ctx context.Context, st *session.State, text string) (Result, error) {
	if st.Post == nil {
		return Result{}, ErrPostContextRequired
	}
	text, err := c.checkFreeText(st, session.ModePost, text)
	if err != nil {
		return Result{}, err
	}
	req := c.postRequest(st)
	req.Input = text
	return c.converse(ctx, st, session.ModePost, text, req)
}

// SetSlot records the booking slot. When the booking log is still empty it
// issues the bootstrap call, which carries the slot but no input. A failed
// bootstrap leaves the log empty so setting the slot again retries it.
func (c *Controller) SetSlot(ctx context.Context, st *session.State, slotID string) (Result, error) {
	slotID = strings.TrimSpace(slotID)
	if slotID == "" {
		return Result{}, ErrSlotRequired
	}
	st.SlotID = slotID
	st.Touch()

	log := st.Log(session.ModeBooking)
	if !log.Empty() {
		return Result{Mode: session.ModeBooking, Gate: log.Gate}, nil
	}

	req := c.baseRequest(st)
	req.SlotID = slotID
	reply, err := c.call(ctx, req)
	if err != nil {
		c.logger.Warn("booking bootstrap failed", "session_id", st.SessionID, "slot_id", slotID, "error", err)
		return Result{Mode: session.ModeBooking, Called: true, Gate: log.Gate}, err
	}
	return c.accept(st, session.ModeBooking, reply), nil
}

// SetPostContext stores the consultation notes and starts a fresh post
// conversation. No call is made. A completed post conversation stays locked
// until the session is reset.
func (c *Controller) SetPostContext(st *session.State, slotID, text string) error {
	slotID = strings.TrimSpace(slotID)
	if slotID == "" || strings.TrimSpace(text) == "" {
		return ErrPostContextRequired
	}
	log := st.Log(session.ModePost)
	if log.Gate == session.GateTerminal {
		return ErrConversationComplete
	}
	st.Post = &session.PostContext{SlotID: slotID, Text: text}
	log.Clear()
	st.Touch()
	return nil
}

// Select answers the pending multiple-choice question of a conversation
// with the option at index. The user turn is the literal option label.
func (c *Controller) Select(ctx context.Context, st *session.State, mode session.Mode, index int) (Result, error) {
	log := st.Log(mode)
	if log.Gate == session.GateTerminal {
		return Result{}, ErrConversationComplete
	}
	if log.Gate != session.GateMCQPending || log.PendingMCQ == nil {
		return Result{}, ErrNoPendingMCQ
	}
	mcq := log.PendingMCQ
	if index < 0 || index >= len(mcq.Options) || strings.TrimSpace(mcq.Options[index]) == "" {
		return Result{}, ErrInvalidOption
	}

	var req orch.Request
	switch mode {
	case session.ModeBooking:
		if st.SlotID == "" {
			return Result{}, ErrSlotRequired
		}
		req = c.baseRequest(st)
		req.SlotID = st.SlotID
	case session.ModePost:
		if st.Post == nil {
			return Result{}, ErrPostContextRequired
		}
		req = c.postRequest(st)
	default:
		req = c.baseRequest(st)
	}

	label := mcq.Options[index]
	question := mcq.Question
	if question == "" {
		question = normalize.DefaultMCQQuestion
	}
	req.Input = label
	req.MCQSelectedOption = label
	req.MCQSelectedIndex = &index
	req.MCQQuestion = question
	return c.converse(ctx, st, mode, label, req)
}

// SetMode switches the active console mode.
func (c *Controller) SetMode(st *session.State, mode session.Mode) {
	st.Mode = mode
	st.Touch()
}

// Reset starts a new orchestration session on the same console session.
func (c *Controller) Reset(st *session.State) {
	st.Reset()
	c.logger.Info("console session reset", "key", st.Key, "session_id", st.SessionID)
}

func (c *Controller) checkFreeText(st *session.State, mode session.Mode, text string) (string, error) {
	log := st.Log(mode)
	switch log.Gate {
	case session.GateTerminal:
		return "", ErrConversationComplete
	case session.GateMCQPending:
		return "", ErrMCQPending
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}
	return text, nil
}

func (c *Controller) baseRequest(st *session.State) orch.Request {
	return orch.Request{SessionID: st.SessionID, UserID: st.UserID}
}

func (c *Controller) postRequest(st *session.State) orch.Request {
	req := c.baseRequest(st)
	req.SlotID = st.Post.SlotID
	req.PostConsultationText = st.Post.Text
	return req
}

// converse appends the user turn, makes the call and records the outcome.
func (c *Controller) converse(ctx context.Context, st *session.State, mode session.Mode, userContent string, req orch.Request) (Result, error) {
	log := st.Log(mode)
	log.Append(session.RoleUser, userContent, false, c.now())
	c.metrics.ObserveTurn(string(mode), string(session.RoleUser))
	st.Touch()

	reply, err := c.call(ctx, req)
	if err != nil {
		log.Append(session.RoleAssistant, "Error: "+err.Error(), true, c.now())
		c.metrics.ObserveTurn(string(mode), "error")
		return Result{Mode: mode, Called: true, Gate: log.Gate}, err
	}
	return c.accept(st, mode, reply), nil
}

func (c *Controller) call(ctx context.Context, req orch.Request) (normalize.Reply, error) {
	raw, err := c.sender.Send(ctx, req)
	if err != nil {
		return normalize.Reply{}, err
	}
	reply, err := normalize.Normalize(raw)
	if err != nil {
		return normalize.Reply{}, fmt.Errorf("console: %w", err)
	}
	return reply, nil
}

// accept appends a successful reply and moves the gate.
func (c *Controller) accept(st *session.State, mode session.Mode, reply normalize.Reply) Result {
	log := st.Log(mode)
	log.Append(session.RoleAssistant, reply.String(), false, c.now())
	c.metrics.ObserveTurn(string(mode), string(session.RoleAssistant))
	st.Touch()

	res := Result{Mode: mode, Called: true, Reply: reply}
	if reply.IsTerminal() {
		log.Gate = session.GateTerminal
		log.PendingMCQ = nil
		res.Notice = CompleteNotice
		if mode == session.ModeBooking {
			res.Notice = BookingCompleteNotice
		}
		c.logger.Info("conversation complete", "mode", string(mode), "session_id", st.SessionID)
	} else if mcq, ok := reply.MCQ(); ok {
		log.Gate = session.GateMCQPending
		log.PendingMCQ = &mcq
	} else {
		log.Gate = session.GateFreeText
		log.PendingMCQ = nil
	}
	res.Gate = log.Gate
	return res
}
