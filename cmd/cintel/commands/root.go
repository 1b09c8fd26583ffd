package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"cintel-backend/lib/browser"
	"cintel-backend/lib/configutil"
	"cintel-backend/lib/newsai"
	"cintel-backend/lib/scrapers/newswire"
	"cintel-backend/lib/scrapers/profilepage"
	"cintel-backend/lib/sqliteutil"
	"cintel-backend/lib/util/serviceutil"
	"cintel-backend/services/competitors"
	"cintel-backend/services/competitors/db"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cintel",
	Short: "cintel is a CLI for scraping, classifying and tracking competitor intelligence.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type AiConfig struct {
	BaseUrl           string `json:"base_url"`
	ApiKey            string `json:"api_key"`
	Model             string `json:"model"`
	RequestsPerMinute int    `json:"requests_per_minute"`
}

type Config struct {
	Database       string   `json:"database"`
	ProfileBaseUrl string   `json:"profile_base_url"`
	NewsSources    []string `json:"news_sources"`
	Ai             AiConfig `json:"ai"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Database == "" {
		cfg.Database = configutil.Env("CINTEL_DATABASE", "cintel.db")
	}
	if cfg.ProfileBaseUrl == "" {
		cfg.ProfileBaseUrl = "https://parsers.vc/startup/"
	}
	if len(cfg.NewsSources) == 0 {
		cfg.NewsSources = []string{"https://www.prnewswire.com"}
	}
	if cfg.Ai.ApiKey == "" {
		cfg.Ai.ApiKey = configutil.Env("OPENROUTER_API_KEY", "")
	}
	return cfg
}

// fallbackAnalyzer classifies with keyword rules only, for --no-ai runs
// or when no api key is configured.
type fallbackAnalyzer struct{}

func (fallbackAnalyzer) AnalyzeArticle(ctx context.Context, title, content, company string) newsai.Analysis {
	return newsai.Fallback(title, content, company)
}

func openService(cfg Config, noAI bool, sourceFilter string) (competitors.Service, *sql.DB) {
	database, err := sqliteutil.OpenDB(db.Schema, cfg.Database)
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}

	var analyzer competitors.Analyzer = fallbackAnalyzer{}
	if !noAI && cfg.Ai.ApiKey != "" {
		analyzer = newsai.NewClient(newsai.Options{
			BaseURL:           cfg.Ai.BaseUrl,
			APIKey:            cfg.Ai.ApiKey,
			Model:             cfg.Ai.Model,
			RequestsPerMinute: cfg.Ai.RequestsPerMinute,
		})
	}

	profiles := profilepage.NewScraper(browser.New(browser.Options{}), cfg.ProfileBaseUrl)

	var sources []competitors.NewsSource
	for _, baseURL := range cfg.NewsSources {
		scraper := newswire.NewScraper(newswire.Options{
			BaseURL: baseURL,
			Delay:   time.Second * 2,
		})
		if sourceFilter != "" && scraper.Source() != sourceFilter {
			continue
		}
		sources = append(sources, scraper)
	}
	if sourceFilter != "" && len(sources) == 0 {
		serviceutil.Fatal("unknown news source", fmt.Errorf("%q is not configured", sourceFilter))
	}

	return competitors.NewService(database, analyzer, profiles, sources...), database
}
