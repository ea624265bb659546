package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/orch-console/internal/console"
	"github.com/wolfman30/orch-console/internal/observability/metrics"
	"github.com/wolfman30/orch-console/internal/session"
	"github.com/wolfman30/orch-console/pkg/logging"
)

// CookieName carries the console session key.
const CookieName = "orch_console"

const maxBodyBytes = 1 << 20

// DefaultLockTTL bounds how long one request may hold a shared session.
const DefaultLockTTL = 255 * time.Second

// Handler serves the console page and its JSON API.
type Handler struct {
	controller   *console.Controller
	store        session.Store
	gatherer     prometheus.Gatherer
	logger       *logging.Logger
	secureCookie bool
	lockTTL      time.Duration
}

// Options tune the handler.
type Options struct {
	// Gatherer backs /api/stats; nil uses the default registry.
	Gatherer prometheus.Gatherer
	// SecureCookie marks the session cookie Secure (HTTPS deployments).
	SecureCookie bool
	// LockTTL is the session lease taken on stores shared between replicas.
	// It should outlast the orchestration timeout.
	LockTTL time.Duration
}

// NewHandler creates the console handler.
func NewHandler(controller *console.Controller, store session.Store, logger *logging.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	lockTTL := opts.LockTTL
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &Handler{
		controller:   controller,
		store:        store,
		gatherer:     gatherer,
		logger:       logger,
		secureCookie: opts.SecureCookie,
		lockTTL:      lockTTL,
	}
}

// SessionKey returns the session key carried by the request cookie, if any.
func SessionKey(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

// Routes mounts the console JSON API. The router serves it under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/session", h.Session)
	r.Post("/session/reset", h.Reset)
	r.Post("/session/mode", h.SetMode)
	r.Get("/stats", h.Stats)
	r.Post("/ask/messages", h.AskMessage)
	r.Post("/booking/slot", h.BookingSlot)
	r.Post("/booking/messages", h.BookingMessage)
	r.Post("/post/context", h.PostContext)
	r.Post("/post/messages", h.PostMessage)
	r.Post("/{mode}/select", h.Select)
	r.Post("/upload", h.Upload)
	return r
}

// Page serves the console document.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	if _, err := h.load(w, r); err != nil {
		h.storeFailure(w, "load", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, consolePage)
}

// Stats reports orchestration call counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"orch": metrics.Snapshot(h.gatherer)})
}

// Session returns the current session view.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	st, err := h.load(w, r)
	if err != nil {
		h.storeFailure(w, "load", err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(st))
}

// Reset starts a new orchestration session.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(ctx context.Context, st *session.State) (actionOutcome, error) {
		h.controller.Reset(st)
		return actionOutcome{}, nil
	})
}

// SetMode switches the active mode.
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	h.mutate(w, r, &body, func(ctx context.Context, st *session.State) (actionOutcome, error) {
		mode, err := session.ParseMode(body.Mode)
		if err != nil {
			return actionOutcome{}, badRequest(err.Error())
		}
		h.controller.SetMode(st, mode)
		return actionOutcome{}, nil
	})
}

type textBody struct {
	Text string `json:"text"`
}

// AskMessage submits free text in ask mode.
func (h *Handler) AskMessage(w http.ResponseWriter, r *http.Request) {
	var body textBody
	h.mutate(w, r, &body, func(ctx context.Context, st *session.State) (actionOutcome, error) {
		res, err := h.controller.Ask(ctx, st, body.Text)
		return actionOutcome{notice: res.Notice}, err
	})
}

// BookingSlot sets the booking slot and bootstraps the booking conversation.
func (h *Handler) BookingSlot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SlotID string `json:"slot_id"`
	}
	h.mutate(w, r, &body, func(ctx context.Context, st *session.State) (actionOutcome, error) {
		res, err := h.controller.SetSlot(ctx, st, body.SlotID)
		return actionOutcome{notice: res.Notice}, err
	})
}

// BookingMessage submits free text in booking mode.
func (h *Handler) BookingMessage(w http.ResponseWriter, r *http.Request) {
	var body textBody
	h.mutate(w, r, &body, func(ctx context.Context, st *session.State) (actionOutcome, error) {
		res, err := h.controller.Booking(ctx, st, body.Text)
		return actionOutcome{notice: res.Notice}, err
	})
}

// PostContext saves the consultation notes.
func (h *Handler) PostContext(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SlotID   string `json:"slot_id"`
		PostText string `json:"post_text"`
	}
	h.mutate(w, r, &body, func(ctx context.Context, st *session.State) (actionOutcome, error) {
		if err := h.controller.SetPostContext(st, body.SlotID, body.PostText); err != nil {
			return actionOutcome{}, err
		}
		return actionOutcome{notice: "Context saved. You can now chat to generate or refine the treatment plan."}, nil
	})
}

// PostMessage submits free text in post-consultation mode.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var body textBody
	h.mutate(w, r, &body, func(ctx context.Context, st *session.State) (actionOutcome, error) {
		res, err := h.controller.Post(ctx, st, body.Text)
		return actionOutcome{notice: res.Notice}, err
	})
}

// Select answers the pending multiple-choice question of {mode}.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index *int `json:"index"`
	}
	h.mutate(w, r, &body, func(ctx context.Context, st *session.State) (actionOutcome, error) {
		mode, err := session.ParseMode(chi.URLParam(r, "mode"))
		if err != nil {
			return actionOutcome{}, badRequest(err.Error())
		}
		if body.Index == nil {
			return actionOutcome{}, console.ErrInvalidOption
		}
		res, err := h.controller.Select(ctx, st, mode, *body.Index)
		return actionOutcome{notice: res.Notice}, err
	})
}

// Upload sends file URLs for processing. URLs come either as a list or as
// newline-separated text.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URLs []string `json:"urls"`
		Text string   `json:"text"`
	}
	h.mutate(w, r, &body, func(ctx context.Context, st *session.State) (actionOutcome, error) {
		urls := append(body.URLs, console.ParseURLs(body.Text)...)
		res, err := h.controller.Upload(ctx, st, urls)
		if err != nil {
			return actionOutcome{}, err
		}
		return actionOutcome{upload: &res}, nil
	})
}

type actionOutcome struct {
	notice string
	upload *console.UploadResult
}

type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{status: http.StatusBadRequest, msg: msg}
}

// mutate loads the session, decodes body into dst, runs action and saves
// the session. Rejections map to 4xx; orchestration failures still save
// (the error turn is part of the log) and return 200 with "error" set.
// Stores shared between replicas are leased for the whole load-save cycle.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, dst any, action func(context.Context, *session.State) (actionOutcome, error)) {
	if dst != nil {
		if err := decodeBody(w, r, dst); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if locker, ok := h.store.(session.Locker); ok {
		if key := SessionKey(r); key != "" {
			unlock, err := locker.Lock(r.Context(), key, h.lockTTL)
			if errors.Is(err, session.ErrLocked) {
				writeError(w, http.StatusConflict, "a request for this session is already in progress")
				return
			}
			if err != nil {
				h.storeFailure(w, "lock", err)
				return
			}
			defer unlock()
		}
	}

	st, err := h.load(w, r)
	if err != nil {
		h.storeFailure(w, "load", err)
		return
	}

	outcome, actionErr := action(r.Context(), st)
	var reqErr *requestError
	switch {
	case errors.As(actionErr, &reqErr):
		writeError(w, reqErr.status, reqErr.msg)
		return
	case console.IsRejection(actionErr):
		writeError(w, rejectionStatus(actionErr), actionErr.Error())
		return
	}

	if err := h.store.Save(r.Context(), st); err != nil {
		h.storeFailure(w, "save", err)
		return
	}

	view := newSessionView(st)
	view.Notice = outcome.notice
	view.Upload = outcome.upload
	if actionErr != nil {
		h.logger.Warn("console action failed", "path", r.URL.Path, "session_id", st.SessionID, "error", actionErr)
		view.Error = actionErr.Error()
	}
	writeJSON(w, http.StatusOK, view)
}

func rejectionStatus(err error) int {
	switch {
	case errors.Is(err, console.ErrMCQPending), errors.Is(err, console.ErrConversationComplete):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// load returns the caller's session, creating it (and the cookie) on first
// visit or after expiry.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*session.State, error) {
	key := SessionKey(r)
	if key != "" {
		st, err := h.store.Get(r.Context(), key)
		if err == nil {
			return st, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return nil, err
		}
	}

	st := session.New(key)
	if err := h.store.Save(r.Context(), st); err != nil {
		return nil, err
	}
	if key == "" {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    st.Key,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}
	h.logger.Info("console session created", "key", st.Key, "session_id", st.SessionID)
	return st, nil
}

func (h *Handler) storeFailure(w http.ResponseWriter, op string, err error) {
	h.logger.Error("session store failure", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "session store unavailable")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
