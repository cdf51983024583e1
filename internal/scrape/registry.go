package scrape

import (
	"fmt"

	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/scrape/feed"
	"jobagg-engine/internal/scrape/greenhouse"
	"jobagg-engine/internal/scrape/htmlboard"
	"jobagg-engine/internal/scrape/lever"
	"jobagg-engine/internal/scrape/types"
	"jobagg-engine/internal/scrape/util"
	"jobagg-engine/internal/scrape/workday"
)

// Builder creates the adapter for one site.
type Builder func(site domain.SiteSpec) (types.Fetcher, error)

// NewBuilder returns the production Builder; every adapter shares client
// (and with it the per-host rate limiter).
func NewBuilder(client *util.Client) Builder {
	return func(site domain.SiteSpec) (types.Fetcher, error) {
		switch site.EffectiveKind() {
		case domain.KindHTML:
			return htmlboard.New(client), nil
		case domain.KindFeed:
			return feed.New(client), nil
		case domain.KindLever:
			return lever.New(client), nil
		case domain.KindGreenhouse:
			return greenhouse.New(client), nil
		case domain.KindWorkday:
			return workday.New(client), nil
		default:
			return nil, fmt.Errorf("site %q: unknown kind %q", site.ID, site.Kind)
		}
	}
}
