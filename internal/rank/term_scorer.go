package rank

import (
	"strings"

	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/scrape/util"
)

const (
	titleWeight   = 3
	snippetWeight = 1
)

// TermScorer weights keyword hits: a term in the title counts more than the
// same term found only in the snippet.
type TermScorer struct {
	terms []string
}

func NewTermScorer(keywords []string) TermScorer {
	seen := map[string]bool{}
	var terms []string
	for _, k := range keywords {
		f := util.Fold(k)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return TermScorer{terms: terms}
}

func (s TermScorer) Score(p domain.Posting) (int, []string) {
	title := util.Fold(p.Title)
	snippet := util.Fold(p.Snippet)

	score := 0
	var hits []string
	for _, t := range s.terms {
		switch {
		case strings.Contains(title, t):
			score += titleWeight
		case strings.Contains(snippet, t):
			score += snippetWeight
		default:
			continue
		}
		hits = append(hits, t)
	}
	return score, hits
}
