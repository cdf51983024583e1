package util

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var locationLabel = regexp.MustCompile(`(?i)(?:job location|locations?|työpaikan sijainti|sijainti|paikkakunta)\s*:\s*([^\n\r|·]+)`)

// FindLocation looks for a location inside a listing card when the site has
// no dedicated selector: common class names first, then "Location:" labels.
func FindLocation(card *goquery.Selection) string {
	candidates := []string{
		".location",
		".job-location",
		".job__location",
		"[itemprop='jobLocation']",
		"[data-testid='job-location']",
		"[data-testid='location']",
	}
	for _, sel := range candidates {
		if t := CleanText(card.Find(sel).First().Text()); t != "" {
			return NormalizeLocation(t)
		}
	}
	if loc := ExtractLocationFromLabeledText(card.Text()); loc != "" {
		return NormalizeLocation(loc)
	}
	return ""
}

// ExtractLocationFromLabeledText returns what follows a "Location:" style
// label in plain text, up to the end of that line.
func ExtractLocationFromLabeledText(s string) string {
	m := locationLabel.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	rest := CleanText(m[1])
	if rest == "" || len([]rune(rest)) > 80 {
		return ""
	}
	return strings.TrimSuffix(rest, ".")
}
