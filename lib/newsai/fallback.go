package newsai

import (
	"fmt"
	"strings"
)

var businessKeywords = []string{
	// company developments
	"funding", "investment", "series", "raised", "million", "billion",
	"acquisition", "acquired", "merger", "bought", "purchase",
	"partnership", "collaboration", "alliance", "agreement", "contract",
	"launch", "released", "announced", "unveil", "introduce",
	"expansion", "growth", "new market", "international",

	// business results
	"revenue", "profit", "loss", "earnings", "financial results",
	"ipo", "public", "listing", "stock", "shares",
	"ceo", "cto", "cfo", "executive", "leadership", "appointed", "hired",
	"strategy", "roadmap", "vision", "goals", "objectives",

	// product/tech developments
	"product", "feature", "update", "version", "platform",
	"technology", "innovation", "patent", "breakthrough",
	"customer", "client", "user", "adoption", "deployment",
}

var irrelevantIndicators = []string{
	"event", "conference", "webinar", "speaking at", "will speak",
	"opinion", "commentary", "analysis by", "expert says",
	"industry report", "market research", "survey finds",
	"general", "overall", "market trends", "industry trends",
}

var positiveWords = []string{
	"growth", "success", "launch", "raise", "funding", "partnership",
	"expansion", "innovative", "award", "leading", "breakthrough",
}

var negativeWords = []string{
	"lawsuit", "breach", "hack", "loss", "decline", "failure",
	"shutdown", "layoff", "scandal", "fine", "investigation",
}

var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{"funding", []string{"funding", "raise", "investment", "series", "capital"}},
	{"product", []string{"launch", "product", "feature", "release", "announce"}},
	{"partnership", []string{"partnership", "partner", "collaborate", "agreement"}},
	{"expansion", []string{"expansion", "growth", "enter", "market", "expand"}},
	{"acquisition", []string{"acquire", "acquisition", "merger", "buy"}},
}

func countHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

// Fallback is the rule-based classifier used when the remote model is
// unavailable. an article is relevant when it hits at least two
// business keywords and the irrelevance indicators don't outweigh them.
func Fallback(title, content, company string) Analysis {
	text := strings.ToLower(title + " " + content)

	relevance := countHits(text, businessKeywords)
	irrelevance := countHits(text, irrelevantIndicators)

	if relevance < 2 || irrelevance > relevance {
		return Analysis{
			Relevant:  false,
			Reason:    fmt.Sprintf("Low business relevance (score: %d, irrelevance: %d)", relevance, irrelevance),
			Title:     title,
			Sentiment: "neutral",
		}
	}

	cleanedTitle := title
	if first, _, found := strings.Cut(title, ". "); found && len(first) > 20 {
		cleanedTitle = first + "."
	}

	// first two substantial sentences become the main idea
	var ideaSentences []string
	sentences := strings.Split(title+" "+content, ". ")
	for i, sentence := range sentences {
		if i == 3 {
			break
		}
		sentence = strings.TrimSpace(sentence)
		if len(sentence) > 20 {
			ideaSentences = append(ideaSentences, sentence)
			if len(ideaSentences) == 2 {
				break
			}
		}
	}
	mainIdea := strings.Join(ideaSentences, ". ")
	if mainIdea != "" && !strings.HasSuffix(mainIdea, ".") {
		mainIdea += "."
	}
	if mainIdea == "" {
		mainIdea = capped(title, 200)
	}

	posCount := countHits(text, positiveWords)
	negCount := countHits(text, negativeWords)

	sentiment := "neutral"
	score := 0.0
	switch {
	case posCount > negCount:
		sentiment = "positive"
		score = min(0.8, float64(posCount)*0.2)
	case negCount > posCount:
		sentiment = "negative"
		score = max(-0.8, -float64(negCount)*0.2)
	}

	var topics []string
	for _, t := range topicKeywords {
		for _, kw := range t.keywords {
			if strings.Contains(text, kw) {
				topics = append(topics, t.topic)
				break
			}
		}
	}
	if len(topics) > 5 {
		topics = topics[:5]
	}
	if len(topics) == 0 {
		topics = []string{"general"}
	}

	impact := "low"
	if posCount > 0 || negCount > 0 {
		impact = "medium"
	}

	return Analysis{
		Relevant:       true,
		Title:          capped(cleanedTitle, maxTitleLen),
		MainIdea:       capped(mainIdea, maxMainIdeaLen),
		Sentiment:      sentiment,
		SentimentScore: score,
		KeyTopics:      topics,
		AnalysisText:   fmt.Sprintf("Press mention detected with %s sentiment based on keyword analysis.", sentiment),
		BusinessImpact: impact,
	}
}
