package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bpchanges/bpchanges/internal/client"
	"github.com/bpchanges/bpchanges/internal/config"
	"github.com/bpchanges/bpchanges/internal/logging"
	"github.com/bpchanges/bpchanges/internal/metrics"
	"github.com/bpchanges/bpchanges/internal/pacing"
	"github.com/bpchanges/bpchanges/internal/record"
	"github.com/bpchanges/bpchanges/internal/timewindow"
)

// DefaultOutputFile is where bp-getchanges writes results unless told otherwise.
const DefaultOutputFile = "bp_getChanges_filtered_changes.json"

// NewGetChangesCmd builds the bp-getchanges command.
func NewGetChangesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bp-getchanges START_TIME",
		Short: "Fetch and filter change records",
		Long: `bp-getchanges retrieves change records from the BigPanda changes API for a
time window, optionally filters them, and writes {"results": [...]} to a file.

START_TIME and --end_time use the format YYYY-MM-DDTHH:MM:SS and are read in
--time_zone (also --tz, -z, or the older single-dash -tz). The user API key is read from the environment variable named by
--api_key_env.`,
		Example: `  export BIGPANDA_API_KEY=...
  bp-getchanges 2024-06-01T00:00:00 -e 2024-06-02T00:00:00 --tz America/Chicago
  bp-getchanges 2024-06-01T00:00:00 -s servicenow_change.servicenow_dev12345
  bp-getchanges 2024-06-01T00:00:00 --key change_type --value emergency
  bp-getchanges 2024-06-01T00:00:00 --key affectedCIs --value web01 --array_key affectedCIs`,
		Args:          cobra.ExactArgs(1),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGetChanges,
	}

	f := cmd.Flags()
	f.StringP("end_time", "e", "", "end time in format YYYY-MM-DDTHH:MM:SS (default: now)")
	f.StringP("time_zone", "z", "UTC", "time zone of the given times, e.g. America/Chicago, Etc/GMT+2, EST")
	f.StringP("output_file", "o", DefaultOutputFile, "output file path")
	f.String("format", "json", "output file format: json, yaml")
	f.StringP("source_system", "s", "", "keep records whose source_system contains this text")
	f.StringP("search_query", "q", "", "server-side search on status, identifier and summary")
	f.IntP("limit", "l", client.DefaultLimit, "maximum results per request")
	f.String("sort", client.SortStartTime, "sort field: start_time_frame, end_time_frame")
	f.String("key", "", "key to search for within each change payload")
	f.String("value", "", "value to search for under --key (or within --array_key)")
	f.String("array_key", "", "array key whose members are searched for --value")
	f.String("api_key_env", config.DefaultAPIKeyEnv, "environment variable holding the user API key")
	f.String("url", client.DefaultListURL, "changes list endpoint")
	addCommonFlags(cmd)

	f.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "tz" {
			name = "time_zone"
		}
		return pflag.NormalizedName(name)
	})

	return cmd
}

// LegacyArgs rewrites the single-dash "-tz" spelling, which pflag would read
// as a cluster of shorthand flags, to "--tz". Arguments after "--" are left
// alone.
func LegacyArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if arg == "-tz" || strings.HasPrefix(arg, "-tz=") {
			arg = "-" + arg
		}
		out = append(out, arg)
	}
	return out
}

func runGetChanges(cmd *cobra.Command, args []string) error {
	ctx, rt, err := setup(cmd, "bp-getchanges", "api_url")
	if err != nil {
		return err
	}

	f := cmd.Flags()
	apiKeyEnv, _ := f.GetString("api_key_env")
	endTime, _ := f.GetString("end_time")
	zone, _ := f.GetString("time_zone")
	outputFile, _ := f.GetString("output_file")
	format, _ := f.GetString("format")
	search, _ := f.GetString("search_query")
	limit, _ := f.GetInt("limit")
	sort, _ := f.GetString("sort")

	spec := record.FilterSpec{}
	spec.SourceSystem, _ = f.GetString("source_system")
	spec.Key, _ = f.GetString("key")
	spec.Value, _ = f.GetString("value")
	spec.ArrayKey, _ = f.GetString("array_key")

	apiKey, err := config.Credential(apiKeyEnv)
	if err != nil {
		rt.printer.Warn("Please set the environment variable %s using the export command.", apiKeyEnv)
		return err
	}

	if sort != client.SortStartTime && sort != client.SortEndTime {
		return fmt.Errorf("invalid --sort %q: must be %s or %s", sort, client.SortStartTime, client.SortEndTime)
	}
	if limit <= 0 {
		return fmt.Errorf("invalid --limit %d: must be positive", limit)
	}
	if format = strings.ToLower(format); format != "json" && format != "yaml" {
		return fmt.Errorf("invalid --format %q: must be json or yaml", format)
	}

	window, err := timewindow.Resolve(args[0], endTime, zone, now())
	if err != nil {
		rt.logger.ErrorContext(ctx, "invalid date or time zone", logging.Error(err))
		return err
	}

	pacer, err := pacing.New(rt.cfg.Pacing.Policy, rt.cfg.Pacing.Interval, rt.cfg.Pacing.Burst)
	if err != nil {
		return err
	}

	api := client.NewChangesClient(client.Config{
		ListURL: rt.cfg.APIURL,
		APIKey:  apiKey,
		Timeout: rt.cfg.HTTPTimeout,
		Metrics: rt.metrics,
	})

	rt.logger.InfoContext(ctx, "retrieving changes",
		logging.URL(rt.cfg.APIURL),
		"start", window.Start,
		"end", window.End,
	)
	res := client.NewFetcher(api, pacer, rt.logger, rt.metrics).Fetch(ctx, client.ListParams{
		Window: window,
		Limit:  limit,
		Sort:   sort,
		Search: search,
	})
	if res.Err != nil {
		rt.logger.ErrorContext(ctx, "retrieval stopped early, keeping partial results",
			logging.Error(res.Err),
			logging.Page(res.Pages),
			logging.Total(len(res.Items)),
		)
		rt.printer.Warn("Retrieval incomplete after %d page(s): %v", res.Pages, res.Err)
	}

	filtered := record.Filter(res.Items, spec)
	rt.metrics.AddRecords(metrics.StageFiltered, len(filtered))
	rt.logger.InfoContext(ctx, "total filtered changes", logging.Total(len(filtered)))

	if err := writeResults(outputFile, filtered, format); err != nil {
		rt.logger.ErrorContext(ctx, "failed to save changes to file", logging.Error(err))
		return err
	}

	rt.printer.Success("Saved %d of %d change(s) to %s", len(filtered), len(res.Items), outputFile)
	rt.pushMetrics(ctx)
	return nil
}

func writeResults(path string, records []record.Record, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := record.WriteResults(file, records, format); err != nil {
		file.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return file.Close()
}
