package domain

import "time"

// RawRecord is what a site adapter hands back before normalization. Keys are
// in the adapter's own vocabulary (e.g. "hostedUrl", "locationsText").
type RawRecord map[string]string

// Posting is the canonical listing that flows through filtering, dedup and
// rendering. Field order here is the key order of the structured output.
type Posting struct {
	SourceSite   string     `json:"source_site"`
	Title        string     `json:"title"`
	Company      string     `json:"company"`
	LocationText string     `json:"location_text"`
	URL          string     `json:"url"`
	Snippet      string     `json:"description_snippet"`
	Salary       string     `json:"salary"`
	PostedAt     *time.Time `json:"posted_at"`
	DedupKey     string     `json:"dedup_key"`
	MatchedTerms []string   `json:"matched_terms"`
	Score        int        `json:"score"`
}
