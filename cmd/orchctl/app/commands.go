package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wolfman30/orch-console/internal/console"
	"github.com/wolfman30/orch-console/internal/render"
	"github.com/wolfman30/orch-console/internal/scenario"
	"github.com/wolfman30/orch-console/internal/session"
)

func newAskCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "ask <text>",
		Short:   "Ask one question and print the reply",
		Example: `orchctl ask "What helps with thinning hair?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.build(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			st := newState(session.ModeAsk)
			res, err := rt.controller.Ask(cmd.Context(), st, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printReply(cmd.OutOrStdout(), res)
		},
	}
}

func newUploadCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "upload <url|s3://bucket/key>...",
		Short:   "Send file URLs for processing and print the summary",
		Example: "orchctl upload https://example.com/labs.pdf s3://reports/xray.png",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.build(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			st := newState(session.ModeUpload)
			res, err := rt.controller.Upload(cmd.Context(), st, args)
			if err != nil {
				return err
			}
			text, err := render.UploadText(res)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func newReplayCommand(opts *options) *cobra.Command {
	var stopOnFailure bool
	cmd := &cobra.Command{
		Use:     "replay <file.yaml>...",
		Short:   "Replay scripted scenarios and report failed expectations",
		Example: "orchctl replay scenarios/booking.yaml",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.build(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			runner := scenario.NewRunner(rt.controller, rt.logger)
			runner.StopOnFailure = stopOnFailure

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				sc, err := scenario.Load(path)
				if err != nil {
					return err
				}
				report, err := runner.Run(cmd.Context(), sc)
				printReport(out, report)
				if err != nil {
					return err
				}
				if !report.Passed() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&stopOnFailure, "stop-on-failure", false, "stop a scenario at its first failing step")
	return cmd
}

func printReply(w io.Writer, res console.Result) error {
	text, err := render.Text(render.FromReply(res.Reply))
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, text); err != nil {
		return err
	}
	if res.Notice != "" {
		_, err = fmt.Fprintf(w, "\n%s\n", res.Notice)
	}
	return err
}

func printReport(w io.Writer, report scenario.Report) {
	fmt.Fprintf(w, "== %s (session %s)\n", report.Name, report.SessionID)
	for _, step := range report.Steps {
		status := "ok  "
		if !step.Passed() {
			status = "FAIL"
		}
		label := step.Name
		if label == "" {
			label = step.Action
		}
		fmt.Fprintf(w, "%s %2d [%s] %s\n", status, step.Index, step.Mode, label)
		for _, f := range step.Failures {
			fmt.Fprintf(w, "       - %s\n", f)
		}
	}
	fmt.Fprintf(w, "%d/%d steps passed\n", len(report.Steps)-report.Failed(), len(report.Steps))
}
