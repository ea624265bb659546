package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wolfman30/orch-console/internal/console"
	"github.com/wolfman30/orch-console/internal/session"
)

type chatOptions struct {
	mode  string
	slot  string
	notes string
}

func newChatCommand(opts *options) *cobra.Command {
	co := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive conversation in ask, booking or post mode",
		Long: "chat reads one message per line. When the reply offers options, answer with the option number or its label.\n" +
			"/reset starts a new session, /quit leaves.",
		Example: "orchctl chat --mode booking --slot slot_123",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := session.ParseMode(co.mode)
			if err != nil {
				return err
			}
			if mode == session.ModeUpload {
				return errors.New("chat: use the upload command for file URLs")
			}
			rt, err := opts.build(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			c := &chat{
				controller: rt.controller,
				mode:       mode,
				opts:       co,
				out:        cmd.OutOrStdout(),
			}
			return c.run(cmd.Context(), cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVar(&co.mode, "mode", string(session.ModeAsk), "conversation mode: ask, booking or post")
	cmd.Flags().StringVar(&co.slot, "slot", "", "booking or consultation slot id")
	cmd.Flags().StringVar(&co.notes, "notes", "", "post-consultation notes (post mode)")
	return cmd
}

type chat struct {
	controller *console.Controller
	mode       session.Mode
	opts       *chatOptions
	out        io.Writer
	st         *session.State
}

func (c *chat) run(ctx context.Context, in io.Reader) error {
	if err := c.start(ctx); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := c.start(ctx); err != nil {
				return err
			}
			continue
		}

		res, err := c.send(ctx, line)
		if err != nil {
			if errors.Is(err, console.ErrConversationComplete) {
				fmt.Fprintln(c.out, "Conversation is complete. Type /reset for a new session or /quit.")
				continue
			}
			fmt.Fprintf(c.out, "error: %v\n", err)
			continue
		}
		if err := printReply(c.out, res); err != nil {
			return err
		}
	}
}

// start opens a new session and applies the slot or consultation notes.
func (c *chat) start(ctx context.Context) error {
	c.st = newState(c.mode)
	fmt.Fprintf(c.out, "session %s (user %s), mode %s\n", c.st.SessionID, c.st.UserID, c.mode)

	switch c.mode {
	case session.ModeBooking:
		res, err := c.controller.SetSlot(ctx, c.st, c.opts.slot)
		if errors.Is(err, console.ErrSlotRequired) {
			return errors.New("chat: --slot is required in booking mode")
		}
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			return nil
		}
		return printReply(c.out, res)
	case session.ModePost:
		if err := c.controller.SetPostContext(c.st, c.opts.slot, c.opts.notes); err != nil {
			return errors.New("chat: --slot and --notes are required in post mode")
		}
		fmt.Fprintln(c.out, "Context saved. You can now chat to generate or refine the treatment plan.")
	}
	return nil
}

// send answers a pending question when the line names one of its options,
// and submits free text otherwise.
func (c *chat) send(ctx context.Context, line string) (console.Result, error) {
	log := c.st.Log(c.mode)
	if log.Gate == session.GateMCQPending && log.PendingMCQ != nil {
		if index, ok := optionIndex(log.PendingMCQ.Options, line); ok {
			return c.controller.Select(ctx, c.st, c.mode, index)
		}
		return console.Result{}, fmt.Errorf("%w (1-%d)", console.ErrInvalidOption, len(log.PendingMCQ.Options))
	}

	switch c.mode {
	case session.ModeBooking:
		return c.controller.Booking(ctx, c.st, line)
	case session.ModePost:
		return c.controller.Post(ctx, c.st, line)
	default:
		return c.controller.Ask(ctx, c.st, line)
	}
}

// optionIndex maps "2" or a label to a zero-based option index.
func optionIndex(options []string, line string) (int, bool) {
	if n, err := strconv.Atoi(line); err == nil {
		if n >= 1 && n <= len(options) {
			return n - 1, true
		}
		return 0, false
	}
	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), line) {
			return i, true
		}
	}
	return 0, false
}
