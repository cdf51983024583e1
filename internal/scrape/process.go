package scrape

import (
	"log"
	"time"

	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/rank"
	"jobagg-engine/internal/scrape/types"
)

// siteOutcome is what one fetch task hands back to the orchestrator.
type siteOutcome struct {
	result   types.FetchResult
	fields   domain.FieldMap
	err      error
	duration time.Duration
}

// processSite turns one site's raw records into filtered postings. The cap
// is enforced here as well, so an adapter that over-delivers cannot exceed it.
func processSite(site domain.SiteSpec, out siteOutcome, capPerSite int, norm *Normalizer, m *Matcher, scorer rank.Scorer) ([]domain.Posting, domain.SiteCounters) {
	c := domain.SiteCounters{Site: site.ID, Duration: out.duration}
	if out.err != nil {
		c.Error = out.err.Error()
		return nil, c
	}

	records := out.result.Records
	if capPerSite > 0 && len(records) > capPerSite {
		log.Printf("[scrape:%s] adapter returned %d records, truncating to %d", site.ID, len(records), capPerSite)
		records = records[:capPerSite]
	}
	c.Fetched = len(records)
	c.Skipped = out.result.Skipped

	site.Fields = site.Fields.Merge(out.fields)

	var kept []domain.Posting
	for _, raw := range records {
		p, err := norm.Normalize(raw, site)
		if err != nil {
			c.Invalid++
			log.Printf("[scrape:%s] invalid record: %v", site.ID, err)
			continue
		}

		keep, why := m.ShouldKeep(p, site)
		if !keep {
			log.Printf("[scrape:%s] skipped (%s) title=%q loc=%q url=%q",
				site.ID, why, p.Title, p.LocationText, p.URL)
			continue
		}

		p.Score, p.MatchedTerms = scorer.Score(p)
		kept = append(kept, p)
	}
	c.Matched = len(kept)
	return kept, c
}
