package commands

import (
	"log/slog"
	"time"

	"cintel-backend/lib/util/serviceutil"
	"cintel-backend/services/competitors"

	"github.com/spf13/cobra"
)

var enrichLimit *int
var enrichNoAI *bool

func init() {
	enrichLimit = enrichCmd.Flags().Int("limit", 0, "Only enrich the first N companies.")
	enrichNoAI = enrichCmd.Flags().Bool("no-ai", false, "Classify press mentions with keyword rules instead of the remote model.")
	rootCmd.AddCommand(enrichCmd)
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Scrapes profile pages for every company with a website and merges the results in.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		svc, database := openService(cfg, *enrichNoAI, "")
		defer database.Close()

		summary, err := svc.EnrichProfiles(cmd.Context(), competitors.RunOptions{
			Limit: *enrichLimit,
		})
		if err != nil {
			serviceutil.Fatal("profile enrichment failed", err)
		}

		slog.Info(
			"profile enrichment done",
			"total", summary.Total,
			"succeeded", summary.Succeeded,
			"failed", summary.Failed,
			"elapsed", summary.Elapsed.Round(time.Millisecond),
		)
	},
}
