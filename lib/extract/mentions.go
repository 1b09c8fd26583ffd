package extract

import (
	"regexp"
	"strings"
	"time"
)

// Mention is one press/media entry scraped off a profile page.
type Mention struct {
	Date    time.Time
	Title   string
	Content string
}

const (
	maxMentionTitle   = 300
	maxMentionContent = 1000
)

var mentionsHeader = regexp.MustCompile(`(?i)mentions in press and media`)
var mentionLine = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4})\s+(.+)$`)

var mentionSectionEnds = map[string]bool{
	"Investors":      true,
	"Funding Rounds": true,
	"Competitors":    true,
	"Team":           true,
	"LinkedIn":       true,
}

// PressMentions scans the lines following a "Mentions in press and
// media" header. each dated line starts a mention and the scan stops at
// the next profile section. the input must keep its original line
// structure, whitespace-collapsed text loses the boundaries this
// scanner keys on.
func PressMentions(text string) []Mention {
	headerLoc := mentionsHeader.FindStringIndex(text)
	if headerLoc == nil {
		return nil
	}

	var mentions []Mention
	for _, line := range strings.Split(text[headerLoc[1]:], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if mentionSectionEnds[line] {
			break
		}
		match := mentionLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		date, ok := MentionDate(match[1])
		if !ok {
			continue
		}
		rest := strings.TrimSpace(match[2])
		if len(rest) <= 10 {
			continue
		}
		title, content := splitMention(rest)
		mentions = append(mentions, Mention{
			Date:    date,
			Title:   truncate(title, maxMentionTitle),
			Content: truncate(content, maxMentionContent),
		})
	}
	return mentions
}

// splitMention separates a mention line into title and description: at
// the first double space when present, otherwise after the first
// sentence, otherwise the title is a fixed-length prefix and the
// description keeps the whole line.
func splitMention(rest string) (title, content string) {
	if before, after, found := strings.Cut(rest, "  "); found {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	if before, after, found := strings.Cut(rest, ". "); found {
		return before + ".", strings.TrimSpace(after)
	}
	if len(rest) > 150 {
		return rest[:150], rest
	}
	return rest, ""
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

var mentionDateLayouts = []string{
	"02.01.2006",
	"January 2, 2006 15:04 ET",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
}

// MentionDate parses the date formats seen across profile pages and
// newswire articles, DD.MM.YYYY first.
func MentionDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range mentionDateLayouts {
		date, err := time.Parse(layout, s)
		if err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}
