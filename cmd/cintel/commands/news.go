package commands

import (
	"log/slog"
	"os"
	"time"

	"cintel-backend/lib/util/serviceutil"
	"cintel-backend/services/competitors"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var newsSource *string
var newsParallel *bool
var newsNoAI *bool
var newsLimit *int
var newsMaxArticles *int
var newsMonthsBack *int

func init() {
	newsSource = newsCmd.Flags().String("source", "", "Only search this news source (by name, e.g. \"prnewswire\").")
	newsParallel = newsCmd.Flags().Bool("parallel", false, "Run each news source in its own goroutine.")
	newsNoAI = newsCmd.Flags().Bool("no-ai", false, "Classify articles with keyword rules instead of the remote model.")
	newsLimit = newsCmd.Flags().Int("limit", 0, "Only search news for the first N companies.")
	newsMaxArticles = newsCmd.Flags().Int("max-articles", 10, "Articles to keep per company per source.")
	newsMonthsBack = newsCmd.Flags().Int("months-back", 3, "How far back to look for articles.")
	rootCmd.AddCommand(newsCmd)
}

var newsCmd = &cobra.Command{
	Use:   "news [--source <name>] [--parallel] [--no-ai]",
	Short: "Searches newswires for every company and ingests relevant articles.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		svc, database := openService(cfg, *newsNoAI, *newsSource)
		defer database.Close()

		summaries, err := svc.EnrichNews(cmd.Context(), competitors.RunOptions{
			Parallel:    *newsParallel,
			Limit:       *newsLimit,
			MaxArticles: *newsMaxArticles,
			MonthsBack:  *newsMonthsBack,
		})
		if err != nil {
			serviceutil.Fatal("news enrichment failed", err)
		}

		slog.Info("news enrichment done")

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Source", "Found", "Saved", "Skipped", "Failed", "Elapsed", "Error"})
		for _, s := range summaries {
			t.AppendRow(table.Row{
				s.Source,
				s.Ingest.Found,
				s.Ingest.Saved,
				s.Ingest.Skipped,
				s.Ingest.Failed,
				s.Elapsed.Round(time.Millisecond),
				s.Error,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
