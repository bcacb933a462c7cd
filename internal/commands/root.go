// Package commands builds the cobra commands behind bp-getchanges and
// bp-postchanges.
package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bpchanges/bpchanges/internal/config"
	"github.com/bpchanges/bpchanges/internal/logging"
	"github.com/bpchanges/bpchanges/internal/metrics"
	"github.com/bpchanges/bpchanges/pkg/output"
)

// Version is reported by --version.
var Version = "0.1.0"

// now is swapped in tests.
var now = time.Now

// runtime is everything a single invocation needs besides its arguments.
type runtime struct {
	cfg     *config.Config
	logger  *logging.Logger
	printer *output.Printer
	metrics *metrics.Recorder
	runID   string
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "config file (default: $HOME/.bpchanges/config.yaml)")
	cmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")
	cmd.Flags().String("log-format", "text", "log format: text, json")
}

// setup loads configuration and builds the per-run logger, printer and
// metrics. urlKey names the config key the command's --url flag overrides.
func setup(cmd *cobra.Command, tool, urlKey string) (context.Context, *runtime, error) {
	cfgFile, _ := cmd.Flags().GetString("config")

	flags := map[string]*pflag.Flag{
		"log.level":  cmd.Flags().Lookup("log-level"),
		"log.format": cmd.Flags().Lookup("log-format"),
		urlKey:       cmd.Flags().Lookup("url"),
	}
	cfg, err := config.Load(cfgFile, flags)
	if err != nil {
		return nil, nil, err
	}

	runID := uuid.NewString()
	logger := logging.New(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Log.Level), cfg.Log.Format).
		With("tool", tool)

	job := cfg.Metrics.Job
	if job == "" {
		job = tool
	}

	ctx := logging.ContextWithRunID(cmd.Context(), runID)
	return ctx, &runtime{
		cfg:     cfg,
		logger:  logger,
		printer: output.New(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		metrics: metrics.New(job),
		runID:   runID,
	}, nil
}

// pushMetrics sends run metrics when a Pushgateway is configured. Failures
// are logged, never fatal.
func (rt *runtime) pushMetrics(ctx context.Context) {
	if rt.cfg.Metrics.PushgatewayURL == "" {
		return
	}
	if err := rt.metrics.Push(ctx, rt.cfg.Metrics.PushgatewayURL); err != nil {
		rt.logger.WarnContext(ctx, "failed to push metrics", logging.Error(err))
	}
}
