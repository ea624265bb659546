package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/orch-console/internal/console"
	"github.com/wolfman30/orch-console/internal/render"
	"github.com/wolfman30/orch-console/internal/session"
	"github.com/wolfman30/orch-console/pkg/logging"
)

// StepResult is the outcome of one replayed step.
type StepResult struct {
	Index    int          `json:"index"`
	Name     string       `json:"name,omitempty"`
	Mode     session.Mode `json:"mode"`
	Action   string       `json:"action"`
	Output   string       `json:"output,omitempty"`
	Gate     session.Gate `json:"gate,omitempty"`
	Err      string       `json:"error,omitempty"`
	Failures []string     `json:"failures,omitempty"`
}

// Passed reports whether every expectation held.
func (r StepResult) Passed() bool { return len(r.Failures) == 0 }

// Report collects the step results of one run.
type Report struct {
	Name      string       `json:"name"`
	SessionID string       `json:"session_id"`
	Steps     []StepResult `json:"steps"`
}

// Passed reports whether every step passed.
func (r Report) Passed() bool {
	for _, s := range r.Steps {
		if !s.Passed() {
			return false
		}
	}
	return true
}

// Failed counts failing steps.
func (r Report) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if !s.Passed() {
			n++
		}
	}
	return n
}

// Runner drives a controller through scenarios.
type Runner struct {
	controller *console.Controller
	logger     *logging.Logger
	// StopOnFailure ends a run at the first failing step.
	StopOnFailure bool
}

// NewRunner creates a runner.
func NewRunner(controller *console.Controller, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{controller: controller, logger: logger}
}

// Run replays sc on a fresh session. A cancelled context stops the run and
// is returned with the steps completed so far.
func (r *Runner) Run(ctx context.Context, sc Scenario) (Report, error) {
	st := session.New("")
	report := Report{Name: sc.Name, SessionID: st.SessionID}
	mode := session.ModeAsk

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if step.Mode != "" {
			mode = step.Mode
		}
		res := r.runStep(ctx, st, mode, step)
		res.Index = i + 1
		report.Steps = append(report.Steps, res)

		r.logger.Info("scenario step",
			"scenario", sc.Name,
			"step", res.Index,
			"mode", string(mode),
			"action", res.Action,
			"passed", res.Passed(),
		)
		if !res.Passed() && r.StopOnFailure {
			break
		}
	}
	return report, nil
}

func (r *Runner) runStep(ctx context.Context, st *session.State, mode session.Mode, step Step) StepResult {
	action, err := step.Action()
	res := StepResult{Name: step.Name, Mode: mode, Action: action}
	if err != nil {
		res.Failures = []string{err.Error()}
		return res
	}
	r.controller.SetMode(st, mode)

	var stepErr error
	switch action {
	case ActionSlot:
		var out console.Result
		out, stepErr = r.controller.SetSlot(ctx, st, step.Slot)
		res.Output = replyText(out)
	case ActionPost:
		stepErr = r.controller.SetPostContext(st, step.PostContext.Slot, step.PostContext.Notes)
	case ActionSay:
		var out console.Result
		switch mode {
		case session.ModeBooking:
			out, stepErr = r.controller.Booking(ctx, st, step.Say)
		case session.ModePost:
			out, stepErr = r.controller.Post(ctx, st, step.Say)
		case session.ModeAsk:
			out, stepErr = r.controller.Ask(ctx, st, step.Say)
		default:
			stepErr = fmt.Errorf("scenario: cannot say in %s mode", mode)
		}
		res.Output = replyText(out)
	case ActionSelect:
		var out console.Result
		index, ok := selectionIndex(st.Log(mode), step.Select)
		if !ok {
			stepErr = console.ErrInvalidOption
			if st.Log(mode).PendingMCQ == nil {
				stepErr = console.ErrNoPendingMCQ
			}
			break
		}
		out, stepErr = r.controller.Select(ctx, st, mode, index)
		res.Output = replyText(out)
	case ActionUpload:
		var out console.UploadResult
		out, stepErr = r.controller.Upload(ctx, st, step.Upload)
		if stepErr == nil {
			res.Output, _ = render.UploadText(out)
		}
	}

	if action != ActionUpload {
		res.Gate = st.Log(mode).Gate
	}
	if stepErr != nil {
		res.Err = stepErr.Error()
	}
	res.Failures = check(step.Expect, res)
	return res
}

func replyText(out console.Result) string {
	if !out.Called {
		return ""
	}
	text, err := render.Text(render.FromReply(out.Reply))
	if err != nil {
		return out.Reply.String()
	}
	return strings.TrimSpace(text)
}

func selectionIndex(log *session.Log, sel *Selection) (int, bool) {
	if log.PendingMCQ == nil {
		return 0, false
	}
	if sel.Index != nil {
		return *sel.Index, true
	}
	for i, opt := range log.PendingMCQ.Options {
		if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(sel.Label)) {
			return i, true
		}
	}
	return 0, false
}

func check(exp Expect, res StepResult) []string {
	var failures []string
	switch {
	case exp.Error != "" && res.Err == "":
		failures = append(failures, fmt.Sprintf("expected error containing %q, got none", exp.Error))
	case exp.Error != "" && !strings.Contains(res.Err, exp.Error):
		failures = append(failures, fmt.Sprintf("expected error containing %q, got %q", exp.Error, res.Err))
	case exp.Error == "" && res.Err != "":
		failures = append(failures, "unexpected error: "+res.Err)
	}
	if exp.MCQ != nil && (res.Gate == session.GateMCQPending) != *exp.MCQ {
		failures = append(failures, fmt.Sprintf("expected mcq=%v, gate is %s", *exp.MCQ, res.Gate))
	}
	if exp.Terminal != nil && (res.Gate == session.GateTerminal) != *exp.Terminal {
		failures = append(failures, fmt.Sprintf("expected terminal=%v, gate is %s", *exp.Terminal, res.Gate))
	}
	lower := strings.ToLower(res.Output)
	for _, want := range exp.Contains {
		if !strings.Contains(lower, strings.ToLower(want)) {
			failures = append(failures, fmt.Sprintf("output does not contain %q", want))
		}
	}
	return failures
}
