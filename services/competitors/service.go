// Package competitors is the enrichment service: it pulls scraped
// profiles and news through classification, merges them into the
// relational store without clobbering better data and keeps duplicate
// news out.
package competitors

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cintel-backend/lib/browser"
	"cintel-backend/lib/extract"
	"cintel-backend/lib/newsai"
	"cintel-backend/lib/scrapers/newswire"
	"cintel-backend/lib/scrapers/profilepage"
	"cintel-backend/lib/textutil"
	"cintel-backend/services/competitors/db"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("cintel.services.competitors")

// fuzzy name matches below this similarity are rejected
const fuzzyMatchThreshold = 0.93

type Analyzer interface {
	AnalyzeArticle(ctx context.Context, title, content, company string) newsai.Analysis
}

type ProfileSource interface {
	Scrape(ctx context.Context, website string) (profilepage.Profile, error)
}

type NewsSource interface {
	Source() string
	SearchCompanyNews(ctx context.Context, company string, maxArticles, monthsBack int) ([]newswire.Article, error)
}

type Service struct {
	db       *sql.DB
	qry      *db.Queries
	makeTx   db.MakeTx
	analyzer Analyzer
	profiles ProfileSource
	sources  []NewsSource
}

func NewService(database *sql.DB, analyzer Analyzer, profiles ProfileSource, sources ...NewsSource) Service {
	return Service{
		db:       database,
		qry:      db.New(database),
		makeTx:   db.NewMakeTx(database),
		analyzer: analyzer,
		profiles: profiles,
		sources:  sources,
	}
}

type RunOptions struct {
	// Delay between companies, jittered.
	Delay time.Duration
	// MaxArticles per company per source.
	MaxArticles int
	// MonthsBack bounds article recency.
	MonthsBack int
	// Limit caps how many companies are processed, 0 means all.
	Limit int
	// Parallel runs each news source in its own goroutine.
	Parallel bool
}

func (o RunOptions) withDefaults() RunOptions {
	if o.Delay <= 0 {
		o.Delay = time.Second * 2
	}
	if o.MaxArticles <= 0 {
		o.MaxArticles = 10
	}
	if o.MonthsBack <= 0 {
		o.MonthsBack = 3
	}
	return o
}

// FindCompany resolves a name or website to a stored company: exact
// name first, then website variants, then a fuzzy name match.
func (s Service) FindCompany(ctx context.Context, query string) (db.Company, error) {
	ctx, span := tracer.Start(ctx, "FindCompany")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	company, err := s.qry.GetCompanyByName(ctx, query)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return db.Company{}, err
	}

	if website := textutil.CleanWebsite(query); website != "" && strings.Contains(website, ".") {
		company, err = s.qry.GetCompanyByWebsite(ctx, website)
		if err == nil {
			return company, nil
		}
		company, err = s.qry.SearchCompanyByWebsite(ctx, website)
		if err == nil {
			return company, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return db.Company{}, err
		}
	}

	companies, err := s.qry.ListCompanies(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return db.Company{}, err
	}

	var best db.Company
	bestSimilarity := 0.0
	for _, candidate := range companies {
		similarity := matchr.JaroWinkler(
			textutil.NormalizeName(query),
			textutil.NormalizeName(candidate.Name),
			false,
		)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = candidate
		}
	}
	if bestSimilarity >= fuzzyMatchThreshold {
		slog.InfoContext(
			ctx, "fuzzy company match",
			"query", query,
			"matched", best.Name,
			"similarity", bestSimilarity,
		)
		span.SetAttributes(attribute.Bool("fuzzy", true))
		return best, nil
	}

	return db.Company{}, sql.ErrNoRows
}

type EnrichSummary struct {
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
}

// EnrichProfiles scrapes a profile for every company that has a
// website and merges the result into its row. press mentions found on
// the profile go through the news pipeline. per-company failures are
// logged and counted, the batch keeps going.
func (s Service) EnrichProfiles(ctx context.Context, opts RunOptions) (EnrichSummary, error) {
	ctx, span := tracer.Start(ctx, "EnrichProfiles")
	defer span.End()
	opts = opts.withDefaults()
	start := time.Now()

	companies, err := s.qry.ListCompaniesForEnrichment(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return EnrichSummary{}, err
	}
	if opts.Limit > 0 && len(companies) > opts.Limit {
		companies = companies[:opts.Limit]
	}

	summary := EnrichSummary{Total: len(companies)}
	for i, company := range companies {
		if i > 0 {
			browser.RandomDelay(ctx, opts.Delay, opts.Delay*2)
		}
		summary.Processed++

		err := s.enrichCompanyProfile(ctx, company)
		if err != nil {
			summary.Failed++
			slog.WarnContext(
				ctx, "profile enrichment failed",
				"company", company.Name,
				"err", err,
			)
			continue
		}
		summary.Succeeded++
	}

	summary.Elapsed = time.Since(start)
	span.SetAttributes(
		attribute.Int("total", summary.Total),
		attribute.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (s Service) enrichCompanyProfile(ctx context.Context, company db.Company) error {
	ctx, span := tracer.Start(ctx, "enrichCompanyProfile")
	defer span.End()
	span.SetAttributes(attribute.String("company", company.Name))

	profile, err := s.profiles.Scrape(ctx, company.Website)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	params := MergeProfile(company, profile, time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.UpdateCompanyProfile(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if len(profile.Mentions) > 0 {
		_, err = s.IngestNews(ctx, company, mentionArticles(profile.Mentions, company.Name))
		if err != nil {
			return err
		}
	}
	return nil
}

// mentionArticles adapts profile press mentions into the article shape
// the news pipeline works on.
func mentionArticles(mentions []extract.Mention, company string) []newswire.Article {
	articles := make([]newswire.Article, 0, len(mentions))
	for _, m := range mentions {
		articles = append(articles, newswire.Article{
			Title:         m.Title,
			Content:       m.Content,
			PublishedDate: m.Date,
			Source:        "profile",
			TargetCompany: company,
		})
	}
	return articles
}

type IngestSummary struct {
	Found   int `json:"found"`
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (s *IngestSummary) add(other IngestSummary) {
	s.Found += other.Found
	s.Saved += other.Saved
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// analysisRecord is what gets stored in the news analysis column.
type analysisRecord struct {
	MainIdea       string   `json:"main_idea,omitempty"`
	Analysis       string   `json:"analysis,omitempty"`
	KeyTopics      []string `json:"key_topics,omitempty"`
	BusinessImpact string   `json:"business_impact,omitempty"`
	Source         string   `json:"source,omitempty"`
}

// IngestNews classifies articles and saves the relevant ones,
// skipping duplicates by title or link. the whole batch commits in one
// transaction so a duplicate inside the batch is caught too.
func (s Service) IngestNews(ctx context.Context, company db.Company, articles []newswire.Article) (IngestSummary, error) {
	ctx, span := tracer.Start(ctx, "IngestNews")
	defer span.End()
	span.SetAttributes(
		attribute.String("company", company.Name),
		attribute.Int("articles", len(articles)),
	)

	summary := IngestSummary{Found: len(articles)}
	if len(articles) == 0 {
		return summary, nil
	}

	txqry, discard, commit, err := s.makeTx()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return summary, err
	}
	defer discard()

	now := time.Now()
	for _, article := range articles {
		analysis := s.analyzer.AnalyzeArticle(ctx, article.Title, article.Content, company.Name)
		if !analysis.Relevant {
			summary.Skipped++
			slog.DebugContext(
				ctx, "article not relevant",
				"company", company.Name,
				"title", article.Title,
				"reason", analysis.Reason,
			)
			continue
		}

		title := prefixTitle(analysis.Title, company.Name)
		date := now.Format("2006-01-02")
		if !article.PublishedDate.IsZero() {
			date = article.PublishedDate.Format("2006-01-02")
		}

		exists, err := txqry.NewsExists(ctx, db.NewsExistsParams{
			CompanyID: company.ID,
			Title:     title,
			Link:      article.Link,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return summary, err
		}
		if exists {
			summary.Skipped++
			continue
		}

		encoded, err := json.Marshal(analysisRecord{
			MainIdea:       analysis.MainIdea,
			Analysis:       analysis.AnalysisText,
			KeyTopics:      analysis.KeyTopics,
			BusinessImpact: analysis.BusinessImpact,
			Source:         article.Source,
		})
		if err != nil {
			summary.Failed++
			continue
		}

		// a zero score carries no sentiment signal, so the grade falls
		// back to the middle of the scale instead of the formula's floor
		grade := newsai.DefaultGrade
		if analysis.SentimentScore != 0 {
			grade = newsai.ImportanceGrade(analysis.SentimentScore)
		}

		err = txqry.CreateNews(ctx, db.CreateNewsParams{
			CompanyID:       company.ID,
			Title:           title,
			Date:            date,
			Link:            article.Link,
			Analysis:        string(encoded),
			ImportanceGrade: int64(grade),
			Sentiment:       analysis.Sentiment,
			CreatedAt:       now.Unix(),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return summary, err
		}
		summary.Saved++
	}

	err = commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return summary, err
	}
	return summary, nil
}

// prefixTitle makes sure a stored headline reads from the company's
// perspective, e.g. "Acme: Closes $50M Series C". truncation counts
// runes so a multi-byte headline can't be cut into invalid utf-8.
func prefixTitle(title, company string) string {
	if !strings.HasPrefix(strings.ToLower(title), strings.ToLower(company)) {
		title = fmt.Sprintf("%s: %s", company, title)
	}
	if runes := []rune(title); len(runes) > 255 {
		title = string(runes[:255])
	}
	return title
}

type SourceSummary struct {
	Source  string        `json:"source"`
	Ingest  IngestSummary `json:"ingest"`
	Elapsed time.Duration `json:"elapsed"`
	Error   string        `json:"error,omitempty"`
}

// EnrichNews searches every configured news source for every company
// and ingests what comes back. sources run sequentially unless
// Parallel is set, in which case each source gets its own goroutine
// and a failing source doesn't affect its siblings.
func (s Service) EnrichNews(ctx context.Context, opts RunOptions) ([]SourceSummary, error) {
	ctx, span := tracer.Start(ctx, "EnrichNews")
	defer span.End()
	opts = opts.withDefaults()

	companies, err := s.qry.ListCompanies(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if opts.Limit > 0 && len(companies) > opts.Limit {
		companies = companies[:opts.Limit]
	}

	summaries := make([]SourceSummary, len(s.sources))

	if opts.Parallel && len(s.sources) > 1 {
		group, groupCtx := errgroup.WithContext(ctx)
		for i, source := range s.sources {
			i, source := i, source
			group.Go(func() error {
				summaries[i] = s.enrichFromSource(groupCtx, source, companies, opts)
				return nil
			})
		}
		group.Wait()
	} else {
		for i, source := range s.sources {
			summaries[i] = s.enrichFromSource(ctx, source, companies, opts)
		}
	}

	return summaries, nil
}

func (s Service) enrichFromSource(ctx context.Context, source NewsSource, companies []db.Company, opts RunOptions) SourceSummary {
	ctx, span := tracer.Start(ctx, "enrichFromSource")
	defer span.End()
	span.SetAttributes(attribute.String("source", source.Source()))

	start := time.Now()
	summary := SourceSummary{Source: source.Source()}

	for i, company := range companies {
		if i > 0 {
			browser.RandomDelay(ctx, opts.Delay, opts.Delay*2)
		}

		articles, err := source.SearchCompanyNews(ctx, company.Name, opts.MaxArticles, opts.MonthsBack)
		if err != nil {
			summary.Ingest.Failed++
			summary.Error = err.Error()
			span.RecordError(err)
			slog.WarnContext(
				ctx, "news search failed",
				"source", source.Source(),
				"company", company.Name,
				"err", err,
			)
			continue
		}

		ingest, err := s.IngestNews(ctx, company, articles)
		summary.Ingest.add(ingest)
		if err != nil {
			summary.Error = err.Error()
			span.RecordError(err)
			slog.WarnContext(
				ctx, "news ingestion failed",
				"source", source.Source(),
				"company", company.Name,
				"err", err,
			)
		}
	}

	summary.Elapsed = time.Since(start)
	return summary
}

type RunResult struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Profiles   EnrichSummary   `json:"profiles"`
	News       []SourceSummary `json:"news"`
}

// RunAll runs profile enrichment followed by news enrichment and
// reports both.
func (s Service) RunAll(ctx context.Context, opts RunOptions) (RunResult, error) {
	ctx, span := tracer.Start(ctx, "RunAll")
	defer span.End()

	result := RunResult{StartedAt: time.Now()}

	profiles, err := s.EnrichProfiles(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}
	result.Profiles = profiles

	news, err := s.EnrichNews(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}
	result.News = news

	result.FinishedAt = time.Now()
	return result, nil
}

// RecentNews returns stored news from the last `days` days, optionally
// for a single company resolved via FindCompany.
func (s Service) RecentNews(ctx context.Context, company string, days, limit int) ([]db.News, error) {
	ctx, span := tracer.Start(ctx, "RecentNews")
	defer span.End()

	if days <= 0 {
		days = 30
	}
	if limit <= 0 {
		limit = 50
	}
	cutoff := time.Now().AddDate(0, 0, -days).Format("2006-01-02")

	if company == "" {
		return s.qry.RecentNews(ctx, db.RecentNewsParams{
			Cutoff: cutoff,
			Limit:  int64(limit),
		})
	}

	resolved, err := s.FindCompany(ctx, company)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return s.qry.RecentNewsForCompany(ctx, db.RecentNewsForCompanyParams{
		CompanyID: resolved.ID,
		Cutoff:    cutoff,
		Limit:     int64(limit),
	})
}
