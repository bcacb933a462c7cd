package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bpchanges/bpchanges/internal/client"
	"github.com/bpchanges/bpchanges/internal/config"
	"github.com/bpchanges/bpchanges/internal/logging"
	"github.com/bpchanges/bpchanges/internal/record"
	"github.com/bpchanges/bpchanges/internal/upload"
	"github.com/bpchanges/bpchanges/pkg/output"
)

// NewPostChangesCmd builds the bp-postchanges command.
func NewPostChangesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bp-postchanges INPUT_FILE",
		Short: "Upload change records",
		Long: `bp-postchanges reads a {"results": [...]} file produced by bp-getchanges,
converts each record into a change payload and submits it to the BigPanda
changes API one at a time.

The user API key and the integration app key are read from the environment
variables named by --api_key_env and --app_key_env.`,
		Example: `  export BIGPANDA_API_KEY=... BP_APP_KEY=...
  bp-postchanges bp_getChanges_filtered_changes.json
  bp-postchanges changes.json --prefix copy- --dry-run`,
		Args:          cobra.ExactArgs(1),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPostChanges,
	}

	f := cmd.Flags()
	f.StringP("prefix", "p", "", "prefix added to every identifier")
	f.StringP("url", "u", client.DefaultPostURL, "changes post endpoint")
	f.String("api_key_env", config.DefaultAPIKeyEnv, "environment variable holding the user API key")
	f.String("app_key_env", config.DefaultAppKeyEnv, "environment variable holding the integration app key")
	f.Bool("dry-run", false, "transform and report without submitting")
	addCommonFlags(cmd)

	return cmd
}

func runPostChanges(cmd *cobra.Command, args []string) error {
	ctx, rt, err := setup(cmd, "bp-postchanges", "post_url")
	if err != nil {
		return err
	}

	f := cmd.Flags()
	prefix, _ := f.GetString("prefix")
	apiKeyEnv, _ := f.GetString("api_key_env")
	appKeyEnv, _ := f.GetString("app_key_env")
	dryRun, _ := f.GetBool("dry-run")

	apiKey, apiErr := config.Credential(apiKeyEnv)
	appKey, appErr := config.Credential(appKeyEnv)
	if err := errors.Join(apiErr, appErr); err != nil {
		rt.printer.Error("%v", err)
		rt.printer.Warn("EXPORT the %s and %s environment variables before running.", apiKeyEnv, appKeyEnv)
		return nil
	}

	records, err := readInput(args[0])
	if err != nil {
		rt.logger.ErrorContext(ctx, "failed to read input file", logging.Error(err))
		return err
	}

	api := client.NewChangesClient(client.Config{
		PostURL: rt.cfg.PostURL,
		APIKey:  apiKey,
		AppKey:  appKey,
		Timeout: rt.cfg.HTTPTimeout,
		Metrics: rt.metrics,
	})

	driver := upload.NewDriver(api,
		upload.WithPrefix(prefix),
		upload.WithDryRun(dryRun),
		upload.WithLogger(rt.logger),
		upload.WithMetrics(rt.metrics),
		upload.WithOutcomeHandler(printOutcome(rt.printer, dryRun)),
	)
	rt.logger.InfoContext(ctx, "uploading changes",
		logging.URL(rt.cfg.PostURL),
		logging.Total(len(records)),
		"dry_run", dryRun,
	)
	report := driver.Run(ctx, records)

	table := output.NewTable([]string{"OUTCOME", "COUNT"})
	table.AddRow([]string{string(upload.KindSubmitted), strconv.Itoa(len(report.Submitted))})
	table.AddRow([]string{string(upload.KindFailed), strconv.Itoa(len(report.Failed))})
	table.AddRow([]string{string(upload.KindSkipped), strconv.Itoa(len(report.Skipped))})
	table.Render(cmd.OutOrStdout())

	rt.pushMetrics(ctx)
	return report.Err
}

func readInput(path string) ([]record.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return record.ReadResults(file)
}

func printOutcome(p *output.Printer, dryRun bool) func(upload.Outcome) {
	return func(o upload.Outcome) {
		switch o.Kind {
		case upload.KindSubmitted:
			if dryRun {
				p.Info("Would submit identifier %s", o.Identifier)
				return
			}
			p.Success("Response for identifier %s: %d", o.Identifier, o.StatusCode)
			if o.Body != "" {
				p.Info("%s", o.Body)
			}
		case upload.KindFailed:
			if o.StatusCode != 0 {
				p.Error("Response for identifier %s: %d %s", o.Identifier, o.StatusCode, o.Body)
				return
			}
			p.Error("Request for identifier %s failed: %s", o.Identifier, o.Reason)
		case upload.KindSkipped:
			p.Warn("Skipping record with identifier %s: %s", o.Identifier, o.Reason)
		}
	}
}
