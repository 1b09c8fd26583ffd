package commands

import (
	"log/slog"
	"os"

	"cintel-backend/lib/util/serviceutil"
	"cintel-backend/services/competitors/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var recentCompany *string
var recentDays *int
var recentLimit *int

func init() {
	recentCompany = recentCmd.Flags().String("company", "", "Only show news for this company (name or website).")
	recentDays = recentCmd.Flags().Int("days", 30, "How many days back to show.")
	recentLimit = recentCmd.Flags().Int("limit", 50, "Maximum rows to show.")
	rootCmd.AddCommand(recentCmd)
}

var recentCmd = &cobra.Command{
	Use:   "recent [--company <name>] [--days <n>]",
	Short: "Prints recently stored news, newest and most important first.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		svc, database := openService(cfg, true, "")
		defer database.Close()

		news, err := svc.RecentNews(cmd.Context(), *recentCompany, *recentDays, *recentLimit)
		if err != nil {
			serviceutil.Fatal("failed to query recent news", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Date", "Grade", "Sentiment", "Title"})
		for _, item := range news {
			t.AppendRow(table.Row{
				item.Date,
				item.ImportanceGrade,
				item.Sentiment,
				text.WrapSoft(item.Title, 72),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		stats, err := db.New(database).NewsStats(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to query news stats", err)
		}
		slog.Info(
			"stored news overall",
			"total", stats.Total,
			"companies", stats.Companies,
			"avg_grade", stats.AverageGrade,
		)
	},
}
