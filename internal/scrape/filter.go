package scrape

import (
	"strings"
	"time"

	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/scrape/util"
)

// Rejection reasons reported by ShouldKeep.
const (
	ReasonKeyword  = "no_keyword_match"
	ReasonLocation = "location"
	ReasonTooOld   = "too_old"
)

// Matcher holds the folded form of a FilterConfig so terms are folded once
// per run rather than once per posting.
type Matcher struct {
	keywords  []string
	locations []string
	maxAge    time.Duration
	now       func() time.Time
}

func NewMatcher(fc domain.FilterConfig) *Matcher {
	return &Matcher{
		keywords:  foldTerms(fc.Keywords),
		locations: foldTerms(fc.Locations),
		maxAge:    fc.MaxAge,
		now:       time.Now,
	}
}

func foldTerms(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, t := range in {
		f := util.Fold(t)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Matches reports whether p passes both the keyword and the location predicate.
func Matches(p domain.Posting, fc domain.FilterConfig, site domain.SiteSpec) bool {
	keep, _ := NewMatcher(fc).ShouldKeep(p, site)
	return keep
}

func (m *Matcher) ShouldKeep(p domain.Posting, site domain.SiteSpec) (keep bool, reason string) {
	if !m.KeywordMatch(p) {
		return false, ReasonKeyword
	}
	if !m.LocationMatch(p, site.LocationScoped) {
		return false, ReasonLocation
	}
	if !m.recentEnough(p) {
		return false, ReasonTooOld
	}
	return true, ""
}

// KeywordMatch is true when any keyword is a folded substring of title + snippet.
func (m *Matcher) KeywordMatch(p domain.Posting) bool {
	return len(m.MatchedKeywords(p)) > 0
}

// MatchedKeywords lists the folded keywords found in title + snippet, in
// configuration order.
func (m *Matcher) MatchedKeywords(p domain.Posting) []string {
	text := util.Fold(p.Title + " " + p.Snippet)
	var hits []string
	for _, k := range m.keywords {
		if strings.Contains(text, k) {
			hits = append(hits, k)
		}
	}
	return hits
}

// LocationMatch is true when any location term is a folded substring of the
// location text. Empty location text passes only for location-scoped sites;
// an empty location set accepts everything.
func (m *Matcher) LocationMatch(p domain.Posting, locationScoped bool) bool {
	if len(m.locations) == 0 {
		return true
	}
	loc := util.Fold(p.LocationText)
	if loc == "" {
		return locationScoped
	}
	for _, l := range m.locations {
		if strings.Contains(loc, l) {
			return true
		}
	}
	return false
}

func (m *Matcher) recentEnough(p domain.Posting) bool {
	if m.maxAge <= 0 || p.PostedAt == nil {
		return true
	}
	return m.now().Sub(*p.PostedAt) <= m.maxAge
}
