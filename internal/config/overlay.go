package config

import (
	"strings"
	"time"

	"jobagg-engine/internal/domain"
)

// Overrides are command-line values layered over the loaded file. Zero
// values (and MaxAgeDays < 0) leave the file's setting untouched.
type Overrides struct {
	Keywords          []string
	Locations         []string
	CapPerSite        int
	Concurrency       int
	SiteTimeout       time.Duration
	RequestsPerSecond float64
	MaxAgeDays        int
	Sort              string
	Only              []string
}

// Overlay applies o to cfg. Keyword and location lists may be given as
// repeated flags or as comma-separated values.
func Overlay(cfg *Config, o Overrides) {
	if kw := splitCSV(o.Keywords); len(kw) > 0 {
		cfg.Filters.Keywords = kw
	}
	if locs := splitCSV(o.Locations); len(locs) > 0 {
		cfg.Filters.Locations = locs
	}
	if o.CapPerSite != 0 {
		cfg.Run.CapPerSite = o.CapPerSite
	}
	if o.Concurrency != 0 {
		cfg.Run.Concurrency = o.Concurrency
	}
	if o.SiteTimeout != 0 {
		cfg.Run.SiteTimeout = domain.Duration(o.SiteTimeout)
	}
	if o.RequestsPerSecond != 0 {
		cfg.Run.RequestsPerSecond = o.RequestsPerSecond
	}
	if o.MaxAgeDays >= 0 {
		cfg.Filters.MaxAgeDays = o.MaxAgeDays
	}
	if o.Sort != "" {
		cfg.Run.Sort = o.Sort
	}
	if only := splitCSV(o.Only); len(only) > 0 {
		cfg.Sites = selectSites(cfg.Sites, only)
	}
}

// selectSites keeps the named sites, preserving file order.
func selectSites(sites domain.SiteList, only []string) domain.SiteList {
	want := map[string]bool{}
	for _, id := range only {
		want[strings.ToLower(id)] = true
	}
	var out domain.SiteList
	for _, s := range sites {
		if want[strings.ToLower(s.ID)] {
			out = append(out, s)
		}
	}
	return out
}

func splitCSV(in []string) []string {
	var out []string
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
