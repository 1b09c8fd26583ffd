// Package extract pulls structured company fields out of normalized
// profile-page text. every matcher is an ordered regex cascade: the
// first pattern that yields a sane value wins, a malformed capture
// falls through to the next pattern and no match at all reports ok=false.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var foundedYearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)founded[:\s]+(\d{4})`),
	regexp.MustCompile(`(?i)established[:\s]+(\d{4})`),
	regexp.MustCompile(`(?i)founded in\s+(\d{4})`),
	regexp.MustCompile(`(?i)since\s+(\d{4})`),
}

// FoundedYear accepts years in [1900, next year] only, anything else is
// treated as a false positive from an unrelated number on the page.
func FoundedYear(text string) (int, bool) {
	for _, pattern := range foundedYearPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		year, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if year >= 1900 && year <= time.Now().Year()+1 {
			return year, true
		}
	}
	return 0, false
}

var employeeRangePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)employees?[:\s]+(\d[\d,]*)\s*-\s*(\d[\d,]*)`),
	regexp.MustCompile(`(?i)team size[:\s]+(\d[\d,]*)\s*-\s*(\d[\d,]*)`),
	regexp.MustCompile(`(?i)employee count[:\s]+(\d[\d,]*)\s*-\s*(\d[\d,]*)`),
}

var employeeCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)employees?[:\s]+(\d[\d,]*)`),
	regexp.MustCompile(`(?i)team size[:\s]+(\d[\d,]*)`),
	regexp.MustCompile(`(?i)employee count[:\s]+(\d[\d,]*)`),
	regexp.MustCompile(`(?i)(\d[\d,]*)\s+employees`),
}

// EmployeeCount resolves a headcount range like "50-100" to its
// midpoint, rounded down.
func EmployeeCount(text string) (int, bool) {
	for _, pattern := range employeeRangePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		low, errLow := parseInt(match[1])
		high, errHigh := parseInt(match[2])
		if errLow != nil || errHigh != nil {
			continue
		}
		return (low + high) / 2, true
	}
	for _, pattern := range employeeCountPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		count, err := parseInt(match[1])
		if err != nil {
			continue
		}
		return count, true
	}
	return 0, false
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(s, ",", ""))
}

var fundingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)total\s+(?:raised|funding)[:\s]+\$?([\d][\d.,]*)\s*([KMB])?`),
	regexp.MustCompile(`(?i)raised[:\s]+\$?([\d][\d.,]*)\s*([KMB])?`),
	regexp.MustCompile(`\$([\d][\d.,]*)\s*([KMB])\b`),
}

// FundingTotal returns the aggregate raised amount in dollars,
// expanding K/M/B suffixes.
func FundingTotal(text string) (float64, bool) {
	for _, pattern := range fundingPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		amount, err := ExpandAmount(match[1], match[2])
		if err != nil {
			continue
		}
		return amount, true
	}
	return 0, false
}

// ExpandAmount turns a numeric literal plus an optional K/M/B unit into
// a dollar amount, e.g. ("1.5", "M") -> 1500000.
func ExpandAmount(num string, unit string) (float64, error) {
	value, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", num, err)
	}
	switch strings.ToUpper(unit) {
	case "":
	case "K":
		value *= 1e3
	case "M":
		value *= 1e6
	case "B":
		value *= 1e9
	default:
		return 0, fmt.Errorf("unknown amount unit %q", unit)
	}
	return value, nil
}

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)location[:\s]+([^\n]+)`),
	regexp.MustCompile(`(?i)headquarters[:\s]+([^\n]+)`),
	regexp.MustCompile(`(?i)headquartered in\s+([^.\n]+)`),
	regexp.MustCompile(`(?i)based in\s+([^.\n]+)`),
}

var locationStop = regexp.MustCompile(`(?i)\s+(?:Employees?|Founded|Total|Stage|Team size)\b.*$`)

// Location reports the headquarters string, truncated before the next
// profile section when the page runs sections together.
func Location(text string) (string, bool) {
	for _, pattern := range locationPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		location := locationStop.ReplaceAllString(match[1], "")
		location = strings.Trim(location, " \t,;.")
		if len(location) >= 3 && len(location) <= 100 {
			return location, true
		}
	}
	return "", false
}

var stageNames = `Series [A-Z]|Pre-Seed|Seed|Angel|Private Equity|Public|Acquired`

var stagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:funding )?stage[:\s]+(` + stageNames + `)`),
	regexp.MustCompile(`(?i)\b(` + stageNames + `)\b(?:\s+(?:round|stage|company))`),
	regexp.MustCompile(`(?i)\b(Series [A-Z])\b`),
}

var allDigits = regexp.MustCompile(`^\d+$`)

func FundingStage(text string) (string, bool) {
	for _, pattern := range stagePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		stage := strings.TrimSpace(match[1])
		if len(stage) >= 50 || allDigits.MatchString(stage) {
			continue
		}
		return canonicalStage(stage), true
	}
	return "", false
}

func canonicalStage(stage string) string {
	words := strings.Fields(strings.ToLower(stage))
	for i, w := range words {
		if len(w) == 1 {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var categoriesPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)categories[:\s]+([^\n]+)`),
	regexp.MustCompile(`(?i)tags[:\s]+([^\n]+)`),
	regexp.MustCompile(`(?i)industry[:\s]+([^\n]+)`),
	regexp.MustCompile(`(?i)sectors[:\s]+([^\n]+)`),
}

var categoriesSectionStop = regexp.MustCompile(`(?i)\s+(?:Location|Founded|Employees|Total|Stage)\b.*$`)
var listSeparator = regexp.MustCompile(`[,;]`)

var camelAcronymBoundary = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
var camelLowerBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// Categories extracts the category list from a labeled clause. a
// delimited clause is split on commas/semicolons; a glued PascalCase
// clause is split at case boundaries keeping acronyms intact
// ("AMLCompliance" -> "AML", "Compliance"). duplicates are dropped
// case-insensitively, first casing wins.
func Categories(text string) []string {
	for _, pattern := range categoriesPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		clause := categoriesSectionStop.ReplaceAllString(strings.TrimSpace(match[1]), "")

		var categories []string
		switch {
		case strings.ContainsAny(clause, ",;"):
			categories = listSeparator.Split(clause, -1)
		case clause != "" && clause[0] >= 'A' && clause[0] <= 'Z':
			split := camelAcronymBoundary.ReplaceAllString(clause, "$1 $2")
			split = camelLowerBoundary.ReplaceAllString(split, "$1 $2")
			categories = strings.Fields(split)
		default:
			categories = strings.Fields(clause)
		}

		seen := map[string]bool{}
		var deduped []string
		for _, c := range categories {
			c = strings.TrimSpace(c)
			if len(c) < 2 || seen[strings.ToLower(c)] {
				continue
			}
			seen[strings.ToLower(c)] = true
			deduped = append(deduped, c)
		}
		if len(deduped) > 0 {
			return deduped
		}
	}
	return nil
}

var addressSentencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)registered address is\s+(.+?)\.\s*Its\s+corporate`),
	regexp.MustCompile(`(?i)registered address is\s+(.+?)\.\s*Its`),
}

var addressLabelPattern = regexp.MustCompile(
	`(?i)Registered Address[:\s]+(.+?)(?:\s+Key Metrics|\s+Founded|\s+Location|\s+Stage|\s+Total Funding|\s+Employee|$)`)

// postal code followed by an uppercase letter means the next sentence
// ran straight into the address, everything past the code is cut.
var postalCodeRun = regexp.MustCompile(`(\d{5,6})\s+[A-Z]`)

var innerWhitespace = regexp.MustCompile(`\s+`)

// RegisteredAddress extracts a legal address clause, preferring the
// "Its registered address is ... Its corporate ..." sentence form and
// falling back to a labeled field truncated at the next section.
func RegisteredAddress(text string) (string, bool) {
	for _, pattern := range addressSentencePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		address := strings.TrimSpace(innerWhitespace.ReplaceAllString(match[1], " "))
		if len(address) > 20 && len(address) < 300 {
			return address, true
		}
	}

	match := addressLabelPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	address := strings.TrimSpace(innerWhitespace.ReplaceAllString(match[1], " "))
	address = strings.TrimRight(address, ".")
	if postal := postalCodeRun.FindStringSubmatchIndex(address); postal != nil {
		address = strings.TrimSpace(address[:postal[3]])
	}
	if len(address) > 20 && len(address) < 300 {
		return address, true
	}
	return "", false
}
