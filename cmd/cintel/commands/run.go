package commands

import (
	"log/slog"
	"time"

	"cintel-backend/lib/util/serviceutil"
	"cintel-backend/services/competitors"

	"github.com/spf13/cobra"
)

var runSnapshot *string
var runParallel *bool
var runNoAI *bool
var runLimit *int

func init() {
	runSnapshot = runCmd.Flags().String("snapshot", "", "Write a json snapshot of the run results to this path.")
	runParallel = runCmd.Flags().Bool("parallel", false, "Run each news source in its own goroutine.")
	runNoAI = runCmd.Flags().Bool("no-ai", false, "Classify articles with keyword rules instead of the remote model.")
	runLimit = runCmd.Flags().Int("limit", 0, "Only process the first N companies.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--snapshot <path/to/out.json>]",
	Short: "Runs the full pipeline: profile enrichment followed by news enrichment.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		svc, database := openService(cfg, *runNoAI, "")
		defer database.Close()

		result, err := svc.RunAll(cmd.Context(), competitors.RunOptions{
			Parallel: *runParallel,
			Limit:    *runLimit,
		})
		if err != nil {
			serviceutil.Fatal("pipeline run failed", err)
		}

		slog.Info(
			"pipeline run done",
			"profiles_succeeded", result.Profiles.Succeeded,
			"profiles_failed", result.Profiles.Failed,
			"elapsed", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond),
		)
		for _, s := range result.News {
			slog.Info(
				"news source results",
				"source", s.Source,
				"found", s.Ingest.Found,
				"saved", s.Ingest.Saved,
				"skipped", s.Ingest.Skipped,
			)
		}

		if *runSnapshot != "" {
			err := competitors.WriteSnapshot(*runSnapshot, result)
			if err != nil {
				serviceutil.Fatal("failed to write snapshot", err)
			}
			slog.Info("snapshot written", "path", *runSnapshot)
		}
	},
}
