package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)
var nonPrintableRegex = regexp.MustCompile(`[^\x20-\x7e]+`)

// Normalize collapses whitespace runs into single spaces, replaces runs
// of non-printable or non-ascii bytes with a single space and trims the
// result. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = nonPrintableRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// CleanWebsite reduces a website url to its bare domain so that
// "https://www.acme.io/about" and "acme.io" compare equal.
func CleanWebsite(website string) string {
	website = strings.TrimSpace(strings.ToLower(website))
	website = strings.TrimPrefix(website, "https://")
	website = strings.TrimPrefix(website, "http://")
	website = strings.TrimPrefix(website, "www.")
	if idx := strings.IndexAny(website, "/?#"); idx >= 0 {
		website = website[:idx]
	}
	return website
}
