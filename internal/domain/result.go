package domain

import (
	"fmt"
	"strings"
	"time"
)

type SiteCounters struct {
	Site       string        `json:"site"`
	Fetched    int           `json:"fetched"`
	Skipped    int           `json:"skipped"`
	Invalid    int           `json:"invalid"`
	Matched    int           `json:"matched"`
	Duplicates int           `json:"duplicates"`
	Kept       int           `json:"kept"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

func (c SiteCounters) OK() bool { return c.Error == "" }

type Totals struct {
	Sites      int `json:"sites"`
	SitesOK    int `json:"sites_ok"`
	Fetched    int `json:"fetched"`
	Matched    int `json:"matched"`
	Duplicates int `json:"duplicates"`
	Postings   int `json:"postings"`
}

// RunResult is built once per run by the orchestrator and passed as-is to the renderer.
type RunResult struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Filters    FilterConfig   `json:"filters"`
	Postings   []Posting      `json:"postings"`
	Sites      []SiteCounters `json:"sites"`
	Totals     Totals         `json:"totals"`
}

// Warning explains an empty or degraded run, or returns "".
func (r RunResult) Warning() string {
	switch {
	case r.Totals.Sites > 0 && r.Totals.SitesOK == 0:
		return fmt.Sprintf("no site succeeded (0/%d); result is empty because every source was unavailable", r.Totals.Sites)
	case r.Totals.SitesOK < r.Totals.Sites:
		return fmt.Sprintf("%d/%d sites unavailable", r.Totals.Sites-r.Totals.SitesOK, r.Totals.Sites)
	}
	return ""
}

// Summary renders the counters as log-friendly lines.
func (r RunResult) Summary() string {
	var b strings.Builder
	for _, c := range r.Sites {
		fmt.Fprintf(&b, "%-20s fetched=%d skipped=%d invalid=%d matched=%d dup=%d kept=%d",
			c.Site, c.Fetched, c.Skipped, c.Invalid, c.Matched, c.Duplicates, c.Kept)
		if c.Error != "" {
			fmt.Fprintf(&b, " error=%q", c.Error)
		}
		b.WriteString("\n")
	}
	t := r.Totals
	fmt.Fprintf(&b, "total: sites=%d/%d fetched=%d matched=%d dup=%d postings=%d",
		t.SitesOK, t.Sites, t.Fetched, t.Matched, t.Duplicates, t.Postings)
	if w := r.Warning(); w != "" {
		b.WriteString("\nwarning: " + w)
	}
	return b.String()
}
