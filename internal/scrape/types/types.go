package types

import (
	"context"
	"errors"
	"fmt"

	"jobagg-engine/internal/domain"
)

// ErrSourceUnavailable marks a whole-site failure: network error, timeout,
// bad status or a payload we could not make sense of. The orchestrator treats
// it as zero records from that site.
var ErrSourceUnavailable = errors.New("source unavailable")

// Unavailable wraps err so that errors.Is(err, ErrSourceUnavailable) holds.
func Unavailable(site string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", site, ErrSourceUnavailable, err)
}

type FetchResult struct {
	Records []domain.RawRecord
	// Skipped counts malformed entries the adapter dropped.
	Skipped int
}

// Fetcher is a site adapter. Fetch returns at most limit records in the order
// the source presents them.
type Fetcher interface {
	Name() string
	Fields() domain.FieldMap
	Fetch(ctx context.Context, site domain.SiteSpec, limit int) (FetchResult, error)
}
