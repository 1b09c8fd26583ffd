package newswire

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseWireDate(t *testing.T) {
	date, ok := ParseWireDate("December 09, 2025 06:01 ET")
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 12, 9, 6, 1, 0, 0, time.UTC), date)

	date, ok = ParseWireDate("March 5, 2024")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), date)

	_, ok = ParseWireDate("yesterday")
	require.False(t, ok)
}

func TestSearchResultLinks(t *testing.T) {
	document := `<html><body>
<a href="/news-release/2025/1">  Acme   expands
platform  </a>
<a href="https://elsewhere.example/news-release/2025/2">Absolute link</a>
<a href="ftp://archive.example/news-release/oops">Not a page</a>
<a href="/news-release/2025/3"></a>
<a href="/unrelated/page">Unrelated</a>
</body></html>`

	links := searchResultLinks(context.Background(), document, "https://wire.example")
	require.Equal(t, []searchLink{
		{title: "Acme expands platform", href: "https://wire.example/news-release/2025/1"},
		{title: "Absolute link", href: "https://elsewhere.example/news-release/2025/2"},
		{title: "No title found", href: "https://wire.example/news-release/2025/3"},
	}, links)
}

func TestMentionsCompany(t *testing.T) {
	require.True(t, mentionsCompany("Acme announced a new product", "Acme"))
	require.True(t, mentionsCompany("the acme platform grew", "Acme Analytics"))
	require.False(t, mentionsCompany("an unrelated press release", "Acme"))
	// short name parts don't count as mentions
	require.False(t, mentionsCompany("the AI industry is growing", "Acme AI"))
}

func articleHTML(title, date, body string) string {
	return fmt.Sprintf(`<html><body>
<h1>%s</h1>
<time>%s</time>
<div class="article-content"><p>%s</p></div>
</body></html>`, title, date, body)
}

func TestSearchCompanyNews(t *testing.T) {
	longBody := strings.Repeat("Acme is expanding its fraud detection platform across Europe. ", 5)
	oldBody := strings.Repeat("Acme launched an early pilot program years ago with partners. ", 5)
	otherBody := strings.Repeat("A completely different organization published quarterly results. ", 5)

	recentDate := time.Now().AddDate(0, 0, -7).Format("January 2, 2006") + " 06:01 ET"

	mux := http.NewServeMux()
	mux.HandleFunc("/search/keyword/Acme", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<a href="/news-release/2025/1">Acme expands platform</a>
<a href="/news-release/2020/2">Acme pilot program</a>
<a href="/news-release/2025/3">Other company results</a>
<a href="/news-release/2025/1">Acme expands platform</a>
</body></html>`)
	})
	mux.HandleFunc("/news-release/2025/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articleHTML("Acme expands fraud platform", recentDate, longBody))
	})
	mux.HandleFunc("/news-release/2020/2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articleHTML("Acme pilot program", "January 02, 2020 06:01 ET", oldBody))
	})
	mux.HandleFunc("/news-release/2025/3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articleHTML("Other company results", recentDate, otherBody))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	scraper := NewScraper(Options{
		BaseURL:  server.URL,
		Delay:    time.Millisecond,
		MaxPages: 3,
	})

	articles, err := scraper.SearchCompanyNews(context.Background(), "Acme", 10, 3)
	require.NoError(t, err)

	// duplicate link collapsed, old article filtered, non-mention skipped
	require.Len(t, articles, 1)
	require.Equal(t, "Acme expands fraud platform", articles[0].Title)
	require.Equal(t, "Acme", articles[0].TargetCompany)
	require.Contains(t, articles[0].Content, "fraud detection platform")
	require.False(t, articles[0].PublishedDate.IsZero())
}

func TestParseArticlePageInsufficientContent(t *testing.T) {
	_, err := parseArticlePage("<html><body><p>too short</p></body></html>", "t")
	require.Error(t, err)
}
