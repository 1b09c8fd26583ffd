// Package profilepage scrapes aggregator profile pages into structured
// company data. extraction works off the page's visible text, so any
// profile site with labeled sections works without per-site selectors.
package profilepage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cintel-backend/lib/browser"
	"cintel-backend/lib/extract"
	"cintel-backend/lib/textutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cintel.lib.scrapers.profilepage")

// Profile holds whatever fields the page surfaced. absent fields keep
// their zero value, a sparse profile is normal and not an error.
type Profile struct {
	Website       string
	Location      string
	Address       string
	EmployeeCount int
	TotalRaised   float64
	FoundedYear   int
	Stage         string
	Categories    []string
	Investors     []string
	Acquisitions  []string
	FundingRounds []extract.FundingRound
	Mentions      []extract.Mention
	ScrapedAt     time.Time
}

type Scraper struct {
	browser browser.Browser
	baseURL string
}

// NewScraper builds a scraper rooted at a profile aggregator, e.g.
// "https://parsers.vc/startup/".
func NewScraper(b browser.Browser, baseURL string) Scraper {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return Scraper{browser: b, baseURL: baseURL}
}

// Scrape fetches the profile page for a company website and runs the
// field extractors over it.
func (s Scraper) Scrape(ctx context.Context, website string) (Profile, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	website = textutil.CleanWebsite(website)
	span.SetAttributes(attribute.String("website", website))
	if website == "" {
		err := fmt.Errorf("empty website")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Profile{}, err
	}

	text, err := s.browser.PageText(ctx, s.baseURL+website)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Profile{}, fmt.Errorf("scrape profile for %s: %w", website, err)
	}

	profile := Parse(text)
	profile.Website = website
	profile.ScrapedAt = time.Now()

	span.SetAttributes(
		attribute.Int("mentions", len(profile.Mentions)),
		attribute.Int("funding_rounds", len(profile.FundingRounds)),
	)
	return profile, nil
}

// Parse runs the extractor cascade over visible page text. exported
// separately so callers with text from another source can reuse it.
func Parse(text string) Profile {
	var profile Profile
	profile.FoundedYear, _ = extract.FoundedYear(text)
	profile.EmployeeCount, _ = extract.EmployeeCount(text)
	profile.TotalRaised, _ = extract.FundingTotal(text)
	profile.Location, _ = extract.Location(text)
	profile.Stage, _ = extract.FundingStage(text)
	profile.Address, _ = extract.RegisteredAddress(text)
	profile.Categories = extract.Categories(text)
	profile.Investors = extract.Investors(text)
	profile.Acquisitions = extract.Acquisitions(text)
	profile.FundingRounds = extract.FundingRounds(text)
	profile.Mentions = extract.PressMentions(text)
	return profile
}
