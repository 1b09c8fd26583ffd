// Package newswire searches a press-release wire for company news and
// scrapes the matching articles. results are filtered to a recency
// window and to articles that actually mention the company.
package newswire

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"cintel-backend/lib/browser"
	"cintel-backend/lib/htmlutil"
	"cintel-backend/lib/restyutil"
	"cintel-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cintel.lib.scrapers.newswire")

type Article struct {
	Title         string
	Link          string
	Content       string
	PublishedDate time.Time
	Source        string
	TargetCompany string
}

type Options struct {
	// BaseURL of the wire, default "https://www.globenewswire.com".
	BaseURL string `json:"base_url"`
	// Delay between requests.
	Delay time.Duration `json:"delay"`
	// MaxPages bounds search pagination.
	MaxPages int `json:"max_pages"`
}

type Scraper struct {
	http     *resty.Client
	baseURL  string
	delay    time.Duration
	maxPages int
	source   string
}

func NewScraper(opts Options) *Scraper {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.globenewswire.com"
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second * 2
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 10
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(time.Second * 30).
		SetHeader("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	restyutil.InstrumentClient(client, "cintel.lib.scrapers.newswire")

	host := strings.TrimPrefix(strings.TrimPrefix(opts.BaseURL, "https://"), "http://")
	host = strings.TrimPrefix(host, "www.")
	source := strings.TrimSuffix(host, ".com")

	return &Scraper{
		http:     client,
		baseURL:  opts.BaseURL,
		delay:    opts.Delay,
		maxPages: opts.MaxPages,
		source:   source,
	}
}

// Source names the wire this scraper reads, derived from its host.
func (s *Scraper) Source() string {
	return s.source
}

// SearchCompanyNews pages through keyword search results and scrapes
// each linked article. per-article failures are logged and skipped,
// the search keeps going.
func (s *Scraper) SearchCompanyNews(ctx context.Context, company string, maxArticles, monthsBack int) ([]Article, error) {
	ctx, span := tracer.Start(ctx, "SearchCompanyNews")
	defer span.End()
	span.SetAttributes(
		attribute.String("company", company),
		attribute.Int("max_articles", maxArticles),
	)

	cutoff := time.Now().AddDate(0, 0, -monthsBack*30)
	seen := map[string]bool{}
	var articles []Article

	for page := 1; page <= s.maxPages && len(articles) < maxArticles; page++ {
		searchPath := fmt.Sprintf("/search/keyword/%s", url.PathEscape(company))
		if page > 1 {
			searchPath = fmt.Sprintf("/search/keyword/%s/load/more?page=%d&pageSize=10", url.PathEscape(company), page)
		}

		res, err := s.http.R().SetContext(ctx).Get(searchPath)
		if err != nil || res.StatusCode() != 200 {
			if page == 1 {
				span.RecordError(err)
				span.SetStatus(codes.Error, "search page fetch failed")
				return nil, fmt.Errorf("search %s: %w", company, errOrStatus(err, res))
			}
			slog.WarnContext(ctx, "search page fetch failed, stopping pagination",
				"company", company, "page", page, "err", errOrStatus(err, res))
			break
		}

		links := searchResultLinks(ctx, res.String(), s.baseURL)
		if len(links) == 0 {
			break
		}

		foundOnPage := 0
		for _, link := range links {
			if len(articles) >= maxArticles {
				break
			}
			if seen[link.href] {
				continue
			}
			seen[link.href] = true

			browser.RandomDelay(ctx, s.delay, s.delay*2)

			article, err := s.scrapeArticle(ctx, link.href, link.title, company)
			if err != nil {
				slog.WarnContext(ctx, "skipping article",
					"company", company, "url", link.href, "err", err)
				continue
			}
			if !article.PublishedDate.IsZero() && article.PublishedDate.Before(cutoff) {
				continue
			}
			articles = append(articles, article)
			foundOnPage++
		}

		// a page full of old or duplicate articles means the rest of
		// the results will only get older
		if foundOnPage == 0 || len(links) < 5 {
			break
		}
	}

	span.SetAttributes(attribute.Int("articles", len(articles)))
	return articles, nil
}

func errOrStatus(err error, res *resty.Response) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("status %d", res.StatusCode())
}

type searchLink struct {
	title string
	href  string
}

func searchResultLinks(ctx context.Context, document, baseURL string) []searchLink {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil
	}

	var links []searchLink
	for _, anchor := range htmlutil.GetAnchors(ctx, doc.Find(`a[href*="/news-release/"]`)) {
		href := anchor.Href
		if strings.HasPrefix(href, "/") {
			href = baseURL + href
		}
		if !strings.HasPrefix(href, "http") {
			continue
		}
		title := textutil.Normalize(anchor.Name)
		if title == "" {
			title = "No title found"
		}
		links = append(links, searchLink{title: title, href: href})
	}
	return links
}

func (s *Scraper) scrapeArticle(ctx context.Context, link, fallbackTitle, company string) (Article, error) {
	ctx, span := tracer.Start(ctx, "scrapeArticle")
	defer span.End()
	span.SetAttributes(attribute.String("url", link))

	res, err := s.http.R().SetContext(ctx).Get(link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Article{}, err
	}
	if res.StatusCode() != 200 {
		return Article{}, fmt.Errorf("status %d", res.StatusCode())
	}

	article, err := parseArticlePage(res.String(), fallbackTitle)
	if err != nil {
		return Article{}, err
	}
	if !mentionsCompany(article.Content, company) {
		return Article{}, fmt.Errorf("article does not mention %s", company)
	}

	article.Link = link
	article.Source = s.source
	article.TargetCompany = company
	return article, nil
}

var contentSelectors = []string{
	`div[class*="article-content"]`,
	`div[class*="news-content"]`,
	`div[class*="press-release"]`,
	".article-body",
	`[class*="article"] p`,
	"main p",
}

var dateSelectors = []string{
	"time",
	`[class*="date"]`,
	`[class*="publish"]`,
	".article-meta",
}

// parseArticlePage pulls title, body and publication date out of an
// article page, trying the wire's known layouts before falling back to
// plain paragraphs.
func parseArticlePage(document, fallbackTitle string) (Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return Article{}, err
	}

	var content string
	for _, selector := range contentSelectors {
		var parts []string
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			text := textutil.Normalize(sel.Text())
			if len(text) > 10 {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			content = strings.Join(parts, "\n\n")
			break
		}
	}
	if content == "" {
		var parts []string
		doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
			if len(parts) == 10 {
				return
			}
			text := textutil.Normalize(sel.Text())
			if len(text) > 20 {
				parts = append(parts, text)
			}
		})
		content = strings.Join(parts, "\n\n")
	}
	if len(strings.TrimSpace(content)) < 100 {
		return Article{}, fmt.Errorf("insufficient article content")
	}

	title := fallbackTitle
	if heading := textutil.Normalize(doc.Find("h1").First().Text()); len(heading) > len(title) {
		title = heading
	}

	var published time.Time
	for _, selector := range dateSelectors {
		text := textutil.Normalize(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		date, ok := ParseWireDate(text)
		if ok {
			published = date
			break
		}
	}

	return Article{
		Title:         title,
		Content:       content,
		PublishedDate: published,
	}, nil
}

// mentionsCompany requires the article body to contain the company
// name, or failing that any part of a compound name longer than three
// characters ("Acme Analytics" matches on "acme").
func mentionsCompany(content, company string) bool {
	matchers := []string{textutil.NormalizeName(company)}
	parts := strings.Fields(strings.ToLower(company))
	if len(parts) >= 2 {
		for _, part := range parts {
			if len(part) > 3 {
				matchers = append(matchers, part)
			}
		}
	}
	return textutil.MatchName(content, matchers)
}

// ParseWireDate handles the wire's timestamp format, with and without
// the trailing time component, e.g. "December 09, 2025 06:01 ET".
func ParseWireDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, " ET"); idx >= 0 {
		s = s[:idx]
	}
	for _, layout := range []string{
		"January 2, 2006 15:04",
		"January 2, 2006",
		"2006-01-02",
	} {
		date, err := time.Parse(layout, s)
		if err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}
