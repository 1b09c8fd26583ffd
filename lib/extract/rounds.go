package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// FundingRound is a single row from a profile page's funding history.
// rounds are aggregate inputs only, they are never persisted on their own.
type FundingRound struct {
	Date   string
	Amount float64
	Stage  string
}

var fundingRoundRow = regexp.MustCompile(
	`(?i)([A-Z][a-z]{2}\s+\d{1,2},\s+\d{4})[^\n$]{0,80}\$([\d][\d.,]*)\s*([KMB])[^\n]{0,80}?\b(Series [A-Z]|Pre-Seed|Seed|Angel)\b`)

func FundingRounds(text string) []FundingRound {
	var rounds []FundingRound
	seen := map[string]bool{}
	for _, match := range fundingRoundRow.FindAllStringSubmatch(text, -1) {
		amount, err := ExpandAmount(match[2], match[3])
		if err != nil {
			continue
		}
		round := FundingRound{
			Date:   strings.TrimSpace(match[1]),
			Amount: amount,
			Stage:  canonicalStage(match[4]),
		}
		key := fmt.Sprintf("%s|%s|%f", round.Date, round.Stage, round.Amount)
		if seen[key] {
			continue
		}
		seen[key] = true
		rounds = append(rounds, round)
	}
	return rounds
}

var investorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)investors?[:\s]+([^\n]+)`),
	regexp.MustCompile(`(?i)funded by\s+([^.\n]+)`),
	regexp.MustCompile(`(?i)backed by\s+([^.\n]+)`),
}

func Investors(text string) []string {
	for _, pattern := range investorPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		names := splitNameList(match[1])
		if len(names) > 0 {
			return names
		}
	}
	return nil
}

var acquisitionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)acquisitions?[:\s]+([^\n]+)`),
	regexp.MustCompile(`(?i)has acquired\s+([^.\n]+)`),
}

func Acquisitions(text string) []string {
	for _, pattern := range acquisitionPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		names := splitNameList(match[1])
		if len(names) > 0 {
			return names
		}
	}
	return nil
}

var nameListSeparator = regexp.MustCompile(`[,;]|\band\b`)

const maxListedNames = 20

func splitNameList(clause string) []string {
	var names []string
	for _, token := range nameListSeparator.Split(clause, -1) {
		token = strings.Trim(token, " \t.")
		if len(token) < 2 || len(token) > 60 {
			continue
		}
		if allDigits.MatchString(token) {
			continue
		}
		names = append(names, token)
		if len(names) == maxListedNames {
			break
		}
	}
	return names
}
