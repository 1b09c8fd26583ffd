package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cintel-backend/lib/textutil"
	"cintel-backend/lib/util/serviceutil"
	"cintel-backend/services/competitors"
	"cintel-backend/services/competitors/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	companiesCmd.AddCommand(companiesAddCmd)
	rootCmd.AddCommand(companiesCmd)
}

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "Lists tracked companies.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		_, database := openService(cfg, true, "")
		defer database.Close()
		qry := db.New(database)

		companies, err := qry.ListCompanies(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list companies", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Name", "Website", "Stage", "Raised", "Employees", "Categories"})
		for _, c := range companies {
			raised := ""
			if c.FundingsTotal > 0 {
				raised = fmt.Sprintf("$%.1fM", c.FundingsTotal/1_000_000)
			}
			t.AppendRow(table.Row{
				c.Name,
				c.Website,
				c.FundingStage,
				raised,
				c.EmployeeQty,
				strings.Join(competitors.DecodeCategories(c.Categories), ", "),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

var companiesAddCmd = &cobra.Command{
	Use:   "add <name> [website]",
	Short: "Starts tracking a company.",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		_, database := openService(cfg, true, "")
		defer database.Close()
		qry := db.New(database)

		website := ""
		if len(args) > 1 {
			website = textutil.CleanWebsite(args[1])
		}

		id, err := qry.CreateCompany(cmd.Context(), db.CreateCompanyParams{
			Name:      args[0],
			Website:   website,
			CreatedAt: time.Now().Unix(),
		})
		if err != nil {
			serviceutil.Fatal("failed to create company", err)
		}
		slog.Info("company added", "id", id, "name", args[0], "website", website)
	},
}
