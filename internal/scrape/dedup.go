package scrape

import (
	"strings"

	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/scrape/util"
)

// DedupKey prefers the canonical URL (path and query keep their case);
// postings without a usable absolute URL key on folded
// title|company|location instead.
func DedupKey(p domain.Posting) string {
	if util.IsAbsoluteHTTP(p.URL) {
		return "url:" + util.CanonicalizeURL(p.URL)
	}
	return "tcl:" + strings.Join([]string{
		util.Fold(p.Title),
		util.Fold(p.Company),
		util.Fold(p.LocationText),
	}, "|")
}

// Dedupe keeps the first posting for every key, preserving input order, and
// reports dropped duplicates per source site.
func Dedupe(postings []domain.Posting) ([]domain.Posting, map[string]int) {
	seen := make(map[string]bool, len(postings))
	dropped := map[string]int{}
	out := make([]domain.Posting, 0, len(postings))

	for _, p := range postings {
		if p.DedupKey == "" {
			p.DedupKey = DedupKey(p)
		}
		if seen[p.DedupKey] {
			dropped[p.SourceSite]++
			continue
		}
		seen[p.DedupKey] = true
		out = append(out, p)
	}
	return out, dropped
}
