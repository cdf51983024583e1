package config

import (
	"time"

	"jobagg-engine/internal/domain"
)

const (
	DefaultCapPerSite        = 120
	DefaultConcurrency       = 4
	DefaultSiteTimeout       = 90 * time.Second
	DefaultRequestsPerSecond = 2.0
	DefaultSort              = "config"
)

var DefaultLocations = []string{"Helsinki", "Espoo", "Vantaa"}

// DefaultKeywords covers warehouse, cleaning, kitchen and fast-food work in
// English and Finnish. Folding makes "keittiö" and "keittio" the same term.
var DefaultKeywords = []string{
	// warehouse / logistics
	"warehouse", "warehousing", "logistics", "logistic", "picker", "packer", "forklift", "varasto", "logistiikka",
	"material handler", "order picker", "post sorter",
	// cleaning
	"cleaner", "cleaning", "janitor", "housekeeping", "siivous", "siivooja", "toimitilahuoltaja",
	// kitchen / restaurant
	"kitchen", "dishwasher", "cook", "chef", "ravintola", "keittiö", "keittiöapulainen",
	"astiahuoltaja", "tiskaaja", "line cook",
	// fast food
	"fast food", "pikaruoka", "McDonalds", "Hesburger", "Burger King", "Subway", "Taco Bell", "Kotipizza",
}

// ApplyDefaults fills unset run settings and, when the file names no
// keywords or locations, the built-in filter vocabulary.
func ApplyDefaults(cfg *Config) {
	if len(cfg.Filters.Keywords) == 0 {
		cfg.Filters.Keywords = append([]string(nil), DefaultKeywords...)
	}
	if len(cfg.Filters.Locations) == 0 {
		cfg.Filters.Locations = append([]string(nil), DefaultLocations...)
	}
	if cfg.Run.CapPerSite == 0 {
		cfg.Run.CapPerSite = DefaultCapPerSite
	}
	if cfg.Run.Concurrency == 0 {
		cfg.Run.Concurrency = DefaultConcurrency
	}
	if cfg.Run.SiteTimeout == 0 {
		cfg.Run.SiteTimeout = domain.Duration(DefaultSiteTimeout)
	}
	if cfg.Run.RequestsPerSecond == 0 {
		cfg.Run.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Run.Sort == "" {
		cfg.Run.Sort = DefaultSort
	}
}
