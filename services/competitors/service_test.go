package competitors

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"cintel-backend/lib/extract"
	"cintel-backend/lib/newsai"
	"cintel-backend/lib/scrapers/newswire"
	"cintel-backend/lib/scrapers/profilepage"
	"cintel-backend/lib/testutil"
	"cintel-backend/services/competitors/db"

	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	analyze func(title, content, company string) newsai.Analysis
}

func (s stubAnalyzer) AnalyzeArticle(ctx context.Context, title, content, company string) newsai.Analysis {
	return s.analyze(title, content, company)
}

// relevantAnalyzer accepts everything and echoes the title back.
var relevantAnalyzer = stubAnalyzer{
	analyze: func(title, content, company string) newsai.Analysis {
		return newsai.Analysis{
			Relevant:       true,
			Title:          title,
			MainIdea:       content,
			Sentiment:      "neutral",
			SentimentScore: 0.5,
		}
	},
}

var fallbackAnalyzer = stubAnalyzer{
	analyze: func(title, content, company string) newsai.Analysis {
		return newsai.Fallback(title, content, company)
	},
}

type stubProfiles struct {
	profile profilepage.Profile
	err     error
}

func (s stubProfiles) Scrape(ctx context.Context, website string) (profilepage.Profile, error) {
	return s.profile, s.err
}

type stubSource struct {
	name     string
	articles []newswire.Article
	err      error
}

func (s stubSource) Source() string {
	return s.name
}

func (s stubSource) SearchCompanyNews(ctx context.Context, company string, maxArticles, monthsBack int) ([]newswire.Article, error) {
	return s.articles, s.err
}

func setupTestService(t *testing.T, analyzer Analyzer, profiles ProfileSource, sources ...NewsSource) (Service, *db.Queries) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "competitors",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)
	return NewService(result.DB, analyzer, profiles, sources...), db.New(result.DB)
}

func createCompany(t *testing.T, qry *db.Queries, name, website string) db.Company {
	id, err := qry.CreateCompany(context.Background(), db.CreateCompanyParams{
		Name:      name,
		Website:   website,
		CreatedAt: time.Now().Unix(),
	})
	require.NoError(t, err)
	company, err := qry.GetCompanyByName(context.Background(), name)
	require.NoError(t, err)
	require.Equal(t, id, company.ID)
	return company
}

func TestFindCompany(t *testing.T) {
	svc, qry := setupTestService(t, relevantAnalyzer, stubProfiles{})
	ctx := context.Background()

	acme := createCompany(t, qry, "Acme Corp", "acme.com")
	createCompany(t, qry, "Globex", "globex.io")

	found, err := svc.FindCompany(ctx, "acme corp")
	require.NoError(t, err)
	require.Equal(t, acme.ID, found.ID)

	found, err = svc.FindCompany(ctx, "https://www.acme.com/about")
	require.NoError(t, err)
	require.Equal(t, acme.ID, found.ID)

	found, err = svc.FindCompany(ctx, "Acme Corpp")
	require.NoError(t, err)
	require.Equal(t, acme.ID, found.ID)

	_, err = svc.FindCompany(ctx, "Initech")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestIngestNewsIdempotent(t *testing.T) {
	svc, qry := setupTestService(t, relevantAnalyzer, stubProfiles{})
	ctx := context.Background()
	company := createCompany(t, qry, "Acme Corp", "acme.com")

	articles := []newswire.Article{
		{
			Title:         "Acme Corp expands into Europe",
			Content:       "Acme Corp opened three new offices.",
			Link:          "https://wire.example/news-release/acme-europe",
			PublishedDate: time.Now(),
		},
		{
			Title:         "Acme Corp hires new CTO",
			Content:       "Acme Corp announced a new CTO.",
			Link:          "https://wire.example/news-release/acme-cto",
			PublishedDate: time.Now(),
		},
	}

	summary, err := svc.IngestNews(ctx, company, articles)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Saved)
	require.Equal(t, 0, summary.Skipped)

	summary, err = svc.IngestNews(ctx, company, articles)
	require.NoError(t, err)
	require.Equal(t, 0, summary.Saved)
	require.Equal(t, 2, summary.Skipped)

	stats, err := qry.NewsStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Total)
}

func TestIngestNewsDedup(t *testing.T) {
	svc, qry := setupTestService(t, relevantAnalyzer, stubProfiles{})
	ctx := context.Background()
	company := createCompany(t, qry, "Acme Corp", "acme.com")

	// same link under two headlines, then the same headline again
	// under a new link: only the first of each pair lands
	articles := []newswire.Article{
		{Title: "Acme Corp raises a round", Link: "https://wire.example/news-release/a", PublishedDate: time.Now()},
		{Title: "Acme Corp closes funding", Link: "https://wire.example/news-release/a", PublishedDate: time.Now()},
		{Title: "Acme Corp raises a round", Link: "https://wire.example/news-release/b", PublishedDate: time.Now()},
	}

	summary, err := svc.IngestNews(ctx, company, articles)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Saved)
	require.Equal(t, 2, summary.Skipped)
}

func TestIngestNewsRelevanceGate(t *testing.T) {
	analyzer := stubAnalyzer{
		analyze: func(title, content, company string) newsai.Analysis {
			return newsai.Analysis{Relevant: false, Reason: "celebrity gossip", Title: title}
		},
	}
	svc, qry := setupTestService(t, analyzer, stubProfiles{})
	ctx := context.Background()
	company := createCompany(t, qry, "Acme Corp", "acme.com")

	summary, err := svc.IngestNews(ctx, company, []newswire.Article{
		{Title: "Celebrity spotted at gala", Link: "https://wire.example/news-release/gala"},
	})
	require.NoError(t, err)
	require.Equal(t, 0, summary.Saved)
	require.Equal(t, 1, summary.Skipped)

	stats, err := qry.NewsStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), stats.Total)
}

func TestIngestNewsPrefixesTitle(t *testing.T) {
	svc, qry := setupTestService(t, relevantAnalyzer, stubProfiles{})
	ctx := context.Background()
	company := createCompany(t, qry, "Acme Corp", "acme.com")

	_, err := svc.IngestNews(ctx, company, []newswire.Article{
		{Title: "New fraud platform launches", Content: "details", Link: "https://wire.example/news-release/x", PublishedDate: time.Now()},
	})
	require.NoError(t, err)

	news, err := svc.RecentNews(ctx, "Acme Corp", 30, 10)
	require.NoError(t, err)
	require.Len(t, news, 1)
	require.Equal(t, "Acme Corp: New fraud platform launches", news[0].Title)
}

func TestPrefixTitleRuneSafe(t *testing.T) {
	long := strings.Repeat("ä", 300)
	out := prefixTitle(long, "Acme")
	require.True(t, utf8.ValidString(out))
	require.Equal(t, 255, len([]rune(out)))
	require.True(t, strings.HasPrefix(out, "Acme: "))
}

func TestIngestNewsGradeWithoutSentimentSignal(t *testing.T) {
	analyzer := stubAnalyzer{
		analyze: func(title, content, company string) newsai.Analysis {
			score := 0.0
			if strings.Contains(title, "breach") {
				score = -0.8
			}
			return newsai.Analysis{Relevant: true, Title: title, Sentiment: "neutral", SentimentScore: score}
		},
	}
	svc, qry := setupTestService(t, analyzer, stubProfiles{})
	ctx := context.Background()
	company := createCompany(t, qry, "Acme Corp", "acme.com")

	_, err := svc.IngestNews(ctx, company, []newswire.Article{
		{Title: "Acme Corp quarterly update", Link: "https://wire.example/news-release/q", PublishedDate: time.Now()},
		{Title: "Acme Corp breach disclosed", Link: "https://wire.example/news-release/b", PublishedDate: time.Now()},
	})
	require.NoError(t, err)

	news, err := svc.RecentNews(ctx, "Acme Corp", 30, 10)
	require.NoError(t, err)
	require.Len(t, news, 2)

	grades := map[string]int64{}
	for _, item := range news {
		grades[item.Title] = item.ImportanceGrade
	}
	// a zero score stores the scale midpoint, a strong one follows the formula
	require.Equal(t, int64(newsai.DefaultGrade), grades["Acme Corp quarterly update"])
	require.Equal(t, int64(8), grades["Acme Corp breach disclosed"])
}

func TestRunAllEndToEnd(t *testing.T) {
	profile := profilepage.Profile{
		Website:       "acme.com",
		Address:       "Kacsa utca 15-23, 1027 Budapest, Hungary",
		EmployeeCount: 75,
		TotalRaised:   50_000_000,
		FoundedYear:   2016,
		Stage:         "Series C",
		Categories:    []string{"Fraud Prevention"},
		Mentions: []extract.Mention{
			{
				Date:    time.Now().AddDate(0, 0, -5),
				Title:   "Acme signs a strategic partnership.",
				Content: "Acme signed a partnership agreement driving expansion into new markets with a major customer deal.",
			},
		},
	}
	source := stubSource{
		name: "prnewswire",
		articles: []newswire.Article{
			{
				Title:         "Acme raises $50M in Series C funding round",
				Content:       "Acme announced it has raised $50 million in Series C funding to accelerate growth and expansion.",
				Link:          "https://www.prnewswire.com/news-release/acme-series-c",
				PublishedDate: time.Now().AddDate(0, 0, -2),
				Source:        "prnewswire",
				TargetCompany: "Acme",
			},
		},
	}

	svc, qry := setupTestService(t, fallbackAnalyzer, stubProfiles{profile: profile}, source)
	ctx := context.Background()
	createCompany(t, qry, "Acme", "acme.com")

	result, err := svc.RunAll(ctx, RunOptions{Delay: time.Millisecond})
	require.NoError(t, err)
	require.Equal(t, 1, result.Profiles.Succeeded)
	require.Equal(t, 0, result.Profiles.Failed)
	require.Len(t, result.News, 1)
	require.Equal(t, "prnewswire", result.News[0].Source)
	require.Equal(t, 1, result.News[0].Ingest.Saved)
	require.Empty(t, result.News[0].Error)

	company, err := qry.GetCompanyByName(ctx, "Acme")
	require.NoError(t, err)
	require.Equal(t, 50_000_000.0, company.FundingsTotal)
	require.Equal(t, "Series C", company.FundingStage)
	require.Equal(t, int64(2016), company.FoundedYear)
	require.Equal(t, int64(75), company.EmployeeQty)
	require.Equal(t, profile.Address, company.Address)
	require.Equal(t, []string{"Fraud Prevention"}, DecodeCategories(company.Categories))

	// press mention from the profile plus the newswire article
	news, err := svc.RecentNews(ctx, "Acme", 30, 10)
	require.NoError(t, err)
	require.Len(t, news, 2)
	for _, item := range news {
		require.GreaterOrEqual(t, item.ImportanceGrade, int64(1))
		require.LessOrEqual(t, item.ImportanceGrade, int64(10))
	}

	funding, err := qry.RecentNewsForCompany(ctx, db.RecentNewsForCompanyParams{
		CompanyID: company.ID,
		Cutoff:    time.Now().AddDate(0, 0, -3).Format("2006-01-02"),
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, funding, 1)
	require.Equal(t, "positive", funding[0].Sentiment)
	require.Greater(t, funding[0].ImportanceGrade, int64(5))
	require.Contains(t, funding[0].Title, "Acme")
	require.Contains(t, funding[0].Analysis, "funding")
}

func TestRunAllParallelSources(t *testing.T) {
	articleFor := func(id string) []newswire.Article {
		return []newswire.Article{{
			Title:         "Acme launches product " + id,
			Content:       "Acme announced a product launch driving growth and expansion for customers.",
			Link:          "https://wire.example/news-release/" + id,
			PublishedDate: time.Now(),
		}}
	}
	first := stubSource{name: "first", articles: articleFor("one")}
	second := stubSource{name: "second", err: context.DeadlineExceeded}

	svc, qry := setupTestService(t, fallbackAnalyzer, stubProfiles{}, first, second)
	ctx := context.Background()
	createCompany(t, qry, "Acme", "")

	summaries, err := svc.EnrichNews(ctx, RunOptions{Delay: time.Millisecond, Parallel: true})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byName := map[string]SourceSummary{}
	for _, s := range summaries {
		byName[s.Source] = s
	}
	require.Equal(t, 1, byName["first"].Ingest.Saved)
	require.NotEmpty(t, byName["second"].Error)

	// the failing source must not have blocked the healthy one
	stats, err := qry.NewsStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Total)
}

func TestEnrichProfilesCountsFailures(t *testing.T) {
	svc, qry := setupTestService(t, relevantAnalyzer, stubProfiles{err: context.DeadlineExceeded})
	ctx := context.Background()
	createCompany(t, qry, "Acme", "acme.com")
	createCompany(t, qry, "Globex", "globex.io")

	summary, err := svc.EnrichProfiles(ctx, RunOptions{Delay: time.Millisecond})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Total)
	require.Equal(t, 2, summary.Failed)
	require.Equal(t, 0, summary.Succeeded)
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := t.TempDir() + "/snapshot.json"
	result := RunResult{
		StartedAt: time.Now().Truncate(time.Second),
		Profiles:  EnrichSummary{Total: 3, Succeeded: 2, Failed: 1},
		News: []SourceSummary{
			{Source: "prnewswire", Ingest: IngestSummary{Found: 5, Saved: 4, Skipped: 1}},
		},
	}

	require.NoError(t, WriteSnapshot(path, result))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, result.Profiles, loaded.Profiles)
	require.Equal(t, result.News, loaded.News)

	// a second write replaces the file outright
	result.Profiles.Total = 9
	require.NoError(t, WriteSnapshot(path, result))
	loaded, err = LoadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, 9, loaded.Profiles.Total)
}
