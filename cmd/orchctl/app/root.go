// Package app builds the orchctl command tree.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wolfman30/orch-console/internal/app/bootstrap"
	appconfig "github.com/wolfman30/orch-console/internal/config"
	"github.com/wolfman30/orch-console/internal/console"
	"github.com/wolfman30/orch-console/internal/orch"
	"github.com/wolfman30/orch-console/internal/session"
	"github.com/wolfman30/orch-console/pkg/logging"
)

type options struct {
	envFile  string
	orchURL  string
	timeout  time.Duration
	logLevel string
	s3       bool
}

// runtime is what every subcommand works with.
type runtime struct {
	cfg        *appconfig.Config
	logger     *logging.Logger
	controller *console.Controller
}

// NewCommand returns the orchctl root command.
func NewCommand(version string) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "orchctl",
		Short:         "Terminal client for the doctor recommendation orchestration API",
		Long:          "orchctl drives the ask, booking, upload and post-consultation flows of the orchestration API from a terminal.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	fs.StringVar(&opts.orchURL, "orch-url", "", "orchestration endpoint (overrides ORCH_URL)")
	fs.DurationVar(&opts.timeout, "timeout", 0, "per-call timeout (overrides ORCH_TIMEOUT)")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL, default warn)")
	fs.BoolVar(&opts.s3, "s3", true, "presign s3:// upload references with the configured AWS credentials")

	versionCmd := &cobra.Command{
		Use:     "version",
		Short:   "Print version and exit",
		Example: "orchctl version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "version:", version)
		},
	}

	cmd.AddCommand(versionCmd)
	cmd.AddCommand(newAskCommand(opts))
	cmd.AddCommand(newChatCommand(opts))
	cmd.AddCommand(newUploadCommand(opts))
	cmd.AddCommand(newReplayCommand(opts))
	return cmd
}

func (o *options) build(ctx context.Context, stderr io.Writer) (*runtime, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("orchctl: load %s: %w", o.envFile, err)
		}
	}
	cfg := appconfig.Load()
	if o.orchURL != "" {
		cfg.OrchURL = o.orchURL
	}
	if o.timeout > 0 {
		cfg.OrchTimeout = o.timeout
	}
	level := "warn"
	if o.logLevel != "" {
		level = o.logLevel
	} else if os.Getenv("LOG_LEVEL") != "" {
		level = cfg.LogLevel
	}
	logger := logging.NewWithFormat(level, "text", stderr)

	client, err := orch.NewClient(orch.Config{URL: cfg.OrchURL, Timeout: cfg.OrchTimeout}, nil, logger)
	if err != nil {
		return nil, err
	}
	controller := console.NewController(client, nil, logger)
	if o.s3 {
		resolver, err := bootstrap.BuildURLResolver(ctx, cfg, logger)
		if err != nil {
			logger.Warn("s3 references disabled", "error", err)
		} else {
			controller.WithURLResolver(resolver)
		}
	}
	return &runtime{cfg: cfg, logger: logger, controller: controller}, nil
}

// newState starts a fresh console session for one command run.
func newState(mode session.Mode) *session.State {
	st := session.New("")
	st.Mode = mode
	return st
}
