package scrape

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"jobagg-engine/internal/config"
	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/events"
	"jobagg-engine/internal/rank"
	"jobagg-engine/internal/scrape/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	CapPerSite  int
	Concurrency int
	// SiteTimeout applies to sites without their own timeout. Zero means none.
	SiteTimeout time.Duration
	Sort        rank.Order
}

// Runner executes aggregation runs. Hub is optional.
type Runner struct {
	build Builder
	Hub   *events.Hub
	Now   func() time.Time
}

func NewRunner(build Builder) *Runner {
	return &Runner{build: build, Now: time.Now}
}

// Run fetches every site, normalizes and filters the records, then
// deduplicates across sites. Per-site failures are recorded in the result;
// only invalid input (a *config.ConfigError, returned before any request is
// made) or a cancelled ctx produce an error.
func (r *Runner) Run(ctx context.Context, sites []domain.SiteSpec, fc domain.FilterConfig, opts Options) (domain.RunResult, error) {
	order, fetchers, err := r.prepare(sites, fc, opts)
	if err != nil {
		return domain.RunResult{}, err
	}

	now := r.Now
	if now == nil {
		now = time.Now
	}
	res := domain.RunResult{
		RunID:     uuid.NewString(),
		StartedAt: now().UTC(),
		Filters:   fc,
	}
	r.Hub.Publish(events.MakeEvent(res.RunID, events.RunStarted, 1, events.RunData{Sites: len(sites)}))

	outcomes := r.fetchAll(ctx, res.RunID, sites, fetchers, opts)

	norm := &Normalizer{Now: now}
	m := NewMatcher(fc)
	m.now = now
	scorer := rank.NewTermScorer(fc.Keywords)

	var all []domain.Posting
	res.Sites = make([]domain.SiteCounters, len(sites))
	for i, site := range sites {
		posts, c := processSite(site, outcomes[i], opts.CapPerSite, norm, m, scorer)
		res.Sites[i] = c
		all = append(all, posts...)
	}

	kept, drops := Dedupe(all)
	for i := range res.Sites {
		c := &res.Sites[i]
		c.Duplicates = drops[c.Site]
		c.Kept = c.Matched - c.Duplicates
	}
	rank.Sort(kept, order)
	res.Postings = kept

	res.Totals = domain.Totals{Sites: len(sites), Postings: len(kept)}
	for _, c := range res.Sites {
		if c.OK() {
			res.Totals.SitesOK++
		}
		res.Totals.Fetched += c.Fetched
		res.Totals.Matched += c.Matched
		res.Totals.Duplicates += c.Duplicates
	}
	res.FinishedAt = now().UTC()

	if w := res.Warning(); w != "" {
		log.Printf("[scrape] warning: %s", w)
	}
	r.Hub.Publish(events.MakeEvent(res.RunID, events.RunFinished, 1, events.RunData{
		Sites:    res.Totals.Sites,
		SitesOK:  res.Totals.SitesOK,
		Postings: res.Totals.Postings,
		Warning:  res.Warning(),
	}))

	return res, ctx.Err()
}

// prepare validates the run and builds one adapter per site. Nothing here
// touches the network.
func (r *Runner) prepare(sites []domain.SiteSpec, fc domain.FilterConfig, opts Options) (rank.Order, []types.Fetcher, error) {
	var problems []string
	if err := config.ValidateRun(sites, fc, config.RunLimits{
		CapPerSite:  opts.CapPerSite,
		Concurrency: opts.Concurrency,
	}); err != nil {
		var ce *config.ConfigError
		if !errors.As(err, &ce) {
			return "", nil, err
		}
		problems = append(problems, ce.Problems...)
	}

	order, err := rank.ParseOrder(string(opts.Sort))
	if err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return "", nil, &config.ConfigError{Problems: problems}
	}

	fetchers := make([]types.Fetcher, len(sites))
	for i, site := range sites {
		f, err := r.build(site)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		fetchers[i] = f
	}
	if len(problems) > 0 {
		return "", nil, &config.ConfigError{Problems: problems}
	}
	return order, fetchers, nil
}

// fetchAll runs the adapters with at most opts.Concurrency in flight. Each
// task writes only its own slot, so completion order never leaks into the
// result.
func (r *Runner) fetchAll(ctx context.Context, runID string, sites []domain.SiteSpec, fetchers []types.Fetcher, opts Options) []siteOutcome {
	outcomes := make([]siteOutcome, len(sites))

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for i := range sites {
		i := i
		site, f := sites[i], fetchers[i]

		g.Go(func() error {
			timeout := site.Timeout.Std()
			if timeout <= 0 {
				timeout = opts.SiteTimeout
			}
			fctx, cancel := ctx, context.CancelFunc(func() {})
			if timeout > 0 {
				fctx, cancel = context.WithTimeout(ctx, timeout)
			}
			defer cancel()

			r.Hub.Publish(events.MakeEvent(runID, events.SiteStarted, 1, events.SiteData{
				Site: site.ID,
				Kind: site.EffectiveKind(),
			}))
			log.Printf("[scrape:%s] Running %s adapter...", site.ID, f.Name())

			start := time.Now()
			res, err := safeFetch(fctx, f, site, opts.CapPerSite)
			if err == nil && fctx.Err() != nil {
				// out of time: whatever the adapter collected is incomplete
				err = fctx.Err()
			}
			if err != nil {
				res = types.FetchResult{}
			}
			out := siteOutcome{result: res, fields: f.Fields(), duration: time.Since(start)}
			if err != nil {
				out.err = types.Unavailable(site.ID, err)
				log.Printf("[scrape:%s] error: %v", site.ID, out.err)
			} else {
				log.Printf("[scrape:%s] got records=%d skipped=%d in %s",
					site.ID, len(res.Records), res.Skipped, out.duration.Round(time.Millisecond))
			}
			outcomes[i] = out

			data := events.SiteData{
				Site:     site.ID,
				Fetched:  len(res.Records),
				Skipped:  res.Skipped,
				Duration: out.duration.Round(time.Millisecond).String(),
			}
			if out.err != nil {
				data.Error = out.err.Error()
			}
			r.Hub.Publish(events.MakeEvent(runID, events.SiteFinished, 1, data))
			return nil // best-effort: one site never cancels the others
		})
	}

	_ = g.Wait()
	return outcomes
}

// safeFetch turns an adapter panic into an unavailable site.
func safeFetch(ctx context.Context, f types.Fetcher, site domain.SiteSpec, limit int) (res types.FetchResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = types.FetchResult{}, fmt.Errorf("adapter panic: %v", p)
		}
	}()
	return f.Fetch(ctx, site, limit)
}
