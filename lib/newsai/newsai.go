// Package newsai decides whether a scraped article matters for
// competitive intelligence. it asks a chat-completions endpoint first
// and degrades to local keyword scoring whenever the remote side is
// unavailable, misbehaves or returns junk. AnalyzeArticle never fails,
// the pipeline always gets an Analysis back.
package newsai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"cintel-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"github.com/kaptinlin/jsonrepair"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("cintel.lib.newsai")

const (
	maxTitleLen    = 255
	maxMainIdeaLen = 1000
	maxAnalysisLen = 1000
	maxKeyTopics   = 10
)

// Analysis is the classifier verdict for one article.
type Analysis struct {
	Relevant       bool     `json:"relevant"`
	Reason         string   `json:"reason,omitempty"`
	Title          string   `json:"title"`
	MainIdea       string   `json:"main_idea"`
	Sentiment      string   `json:"sentiment"`
	SentimentScore float64  `json:"sentiment_score"`
	KeyTopics      []string `json:"key_topics"`
	AnalysisText   string   `json:"analysis"`
	BusinessImpact string   `json:"business_impact"`
}

type Options struct {
	// BaseURL of an OpenAI-compatible chat completions API.
	BaseURL string `json:"base_url"`
	// APIKey enables the remote classifier, empty means local-only.
	APIKey string `json:"-"`
	Model  string `json:"model"`
	// RequestsPerMinute paces calls against free-tier limits.
	RequestsPerMinute int `json:"requests_per_minute"`
}

type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	model   string
	remote  bool
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://openrouter.ai/api/v1"
	}
	if opts.Model == "" {
		opts.Model = "meta-llama/llama-3.2-3b-instruct:free"
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 20
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(time.Second * 30).
		SetHeader("Content-Type", "application/json")
	if opts.APIKey != "" {
		client.SetAuthToken(opts.APIKey)
	} else {
		slog.Warn("no ai api key configured, falling back to keyword analysis")
	}
	restyutil.InstrumentClient(client, "cintel.lib.newsai")

	return &Client{
		http:    client,
		limiter: rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60), 1),
		model:   opts.Model,
		remote:  opts.APIKey != "",
	}
}

// AnalyzeArticle classifies an article from the company's perspective.
// remote failures of any kind degrade to Fallback instead of erroring.
func (c *Client) AnalyzeArticle(ctx context.Context, title, content, company string) Analysis {
	ctx, span := tracer.Start(ctx, "AnalyzeArticle")
	defer span.End()
	span.SetAttributes(attribute.String("company", company))

	if !c.remote {
		span.SetAttributes(attribute.String("classifier", "fallback"))
		return Fallback(title, content, company)
	}

	analysis, err := c.analyzeRemote(ctx, title, content, company)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("classifier", "fallback"))
		slog.WarnContext(
			ctx, "ai analysis failed, using fallback",
			"company", company,
			"err", err,
		)
		return Fallback(title, content, company)
	}
	span.SetAttributes(
		attribute.String("classifier", "remote"),
		attribute.Bool("relevant", analysis.Relevant),
	)
	return analysis
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) analyzeRemote(ctx context.Context, title, content, company string) (Analysis, error) {
	err := c.limiter.Wait(ctx)
	if err != nil {
		return Analysis{}, err
	}

	var body chatResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "user", Content: analysisPrompt(title, content, company)},
			},
			Temperature: 0.3,
			MaxTokens:   600,
		}).
		SetResult(&body).
		Post("/chat/completions")
	if err != nil {
		return Analysis{}, err
	}
	if res.StatusCode() != 200 {
		return Analysis{}, fmt.Errorf("chat completions returned status %d", res.StatusCode())
	}
	if len(body.Choices) == 0 {
		return Analysis{}, fmt.Errorf("chat completions returned no choices")
	}

	analysis, err := parseAnalysis(body.Choices[0].Message.Content)
	if err != nil {
		return Analysis{}, err
	}
	if !analysis.Relevant {
		if analysis.Reason == "" {
			analysis.Reason = "Not business-relevant"
		}
		return Analysis{
			Relevant:  false,
			Reason:    analysis.Reason,
			Title:     title,
			Sentiment: "neutral",
		}, nil
	}

	if analysis.Title == "" {
		analysis.Title = title
	}
	analysis.Title = capped(analysis.Title, maxTitleLen)
	analysis.MainIdea = capped(analysis.MainIdea, maxMainIdeaLen)
	analysis.AnalysisText = capped(analysis.AnalysisText, maxAnalysisLen)
	if len(analysis.KeyTopics) > maxKeyTopics {
		analysis.KeyTopics = analysis.KeyTopics[:maxKeyTopics]
	}
	analysis.Sentiment = normalizeSentiment(analysis.Sentiment)
	analysis.BusinessImpact = normalizeImpact(analysis.BusinessImpact)
	return analysis, nil
}

// parseAnalysis unmarshals a model response, stripping markdown code
// fences and repairing almost-json before giving up.
func parseAnalysis(content string) (Analysis, error) {
	content = stripFences(content)

	var analysis Analysis
	err := json.Unmarshal([]byte(content), &analysis)
	if err == nil {
		return analysis, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return Analysis{}, fmt.Errorf("unmarshal analysis: %w", err)
	}
	err = json.Unmarshal([]byte(repaired), &analysis)
	if err != nil {
		return Analysis{}, fmt.Errorf("unmarshal repaired analysis: %w", err)
	}
	return analysis, nil
}

func stripFences(content string) string {
	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[idx+len("```"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	}
	return strings.TrimSpace(content)
}

func analysisPrompt(title, content, company string) string {
	return fmt.Sprintf(`Analyze this press mention about %[1]s:

Title: %[2]s
Content: %[3]s

First, determine if this article is relevant for business intelligence about %[1]s. Only consider articles that discuss:
- %[1]s's goals, successes, failures
- %[1]s's product releases or new features
- %[1]s's new contracts or partnerships
- Acquisitions or investments involving %[1]s
- %[1]s's collaborations or strategic initiatives
- %[1]s's financial results or funding
- %[1]s's leadership changes or corporate strategy

If the article is NOT specifically relevant to %[1]s (general industry news, mentions %[1]s only in passing, etc.), respond with: {"relevant": false, "reason": "brief explanation"}

If the article IS relevant to %[1]s, provide a JSON response with:
1. relevant: true
2. title: Create a concise title that clearly shows how this relates to %[1]s. Format: "%[1]s: [action/achievement]"
3. main_idea: Extract the main idea in exactly 2-3 clear sentences focusing specifically on what %[1]s is doing/achieving/experiencing
4. sentiment: One of: positive, negative, neutral, mixed (from %[1]s's perspective)
5. sentiment_score: A number from -1.0 (very negative) to 1.0 (very positive) for %[1]s
6. key_topics: Array of 3-5 main business topics/themes specific to %[1]s (e.g., ["funding", "product launch", "partnership"])
7. analysis: 2-3 sentence analysis of what this business development means specifically for %[1]s
8. business_impact: One of: high, medium, low (based on strategic importance to %[1]s)

Focus ONLY on information directly related to %[1]s. Ignore general industry context.
Respond ONLY with valid JSON, no other text.`, company, title, content)
}

func normalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return "positive"
	case "negative":
		return "negative"
	case "mixed":
		return "mixed"
	default:
		return "neutral"
	}
}

func normalizeImpact(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return "high"
	case "low":
		return "low"
	default:
		return "medium"
	}
}

// capped truncates to max characters, never splitting a rune.
func capped(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// ImportanceGrade maps a sentiment score in [-1, 1] to a 1..10 grade.
// the grade reflects magnitude, strongly negative news matters as much
// as strongly positive news.
func ImportanceGrade(score float64) int {
	grade := int(math.Round(math.Abs(score) * 10))
	if grade < 1 {
		return 1
	}
	if grade > 10 {
		return 10
	}
	return grade
}

// DefaultGrade is used when an article was saved without any sentiment
// signal at all.
const DefaultGrade = 5
