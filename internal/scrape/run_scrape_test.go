package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"jobagg-engine/internal/config"
	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/events"
	"jobagg-engine/internal/rank"
	"jobagg-engine/internal/scrape/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher returns canned records and deliberately ignores limit so the
// orchestrator's own cap is exercised.
type fakeFetcher struct {
	records []domain.RawRecord
	skipped int
	err     error
	delay   time.Duration
	panics  bool
	// overrun keeps going past the deadline and still reports success
	overrun bool
	calls   int32
}

func (f *fakeFetcher) Name() string            { return "fake" }
func (f *fakeFetcher) Fields() domain.FieldMap { return domain.FieldMap{domain.FieldURL: "link"} }

func (f *fakeFetcher) Fetch(ctx context.Context, site domain.SiteSpec, limit int) (types.FetchResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.panics {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return types.FetchResult{}, types.Unavailable(site.ID, ctx.Err())
		}
	}
	if f.overrun {
		<-ctx.Done()
	}
	if f.err != nil {
		return types.FetchResult{}, f.err
	}
	return types.FetchResult{Records: f.records, Skipped: f.skipped}, nil
}

func rec(title, loc, link string) domain.RawRecord {
	return domain.RawRecord{"title": title, "location": loc, "link": link, "company": "Acme"}
}

func site(id string) domain.SiteSpec {
	return domain.SiteSpec{ID: id, Kind: domain.KindHTML, URL: "https://" + id + ".example/jobs"}
}

func runnerFor(fakes map[string]*fakeFetcher) *Runner {
	r := NewRunner(func(s domain.SiteSpec) (types.Fetcher, error) {
		f, ok := fakes[s.ID]
		if !ok {
			return nil, fmt.Errorf("no fake for %s", s.ID)
		}
		return f, nil
	})
	r.Now = func() time.Time { return fixedNow }
	return r
}

var warehouseEspoo = domain.FilterConfig{Keywords: []string{"warehouse"}, Locations: []string{"Espoo"}}

func defaultOpts() Options {
	return Options{CapPerSite: 120, Concurrency: 4, SiteTimeout: 5 * time.Second}
}

func TestRunFiltersAndCounts(t *testing.T) {
	fakes := map[string]*fakeFetcher{
		"a": {records: []domain.RawRecord{
			rec("Warehouse Picker", "Espoo", "https://a.example/1"),
			rec("Warehouse Picker", "Oulu", "https://a.example/2"),
			rec("Barista", "Espoo", "https://a.example/3"),
			{"location": "Espoo"}, // no title
		}, skipped: 2},
	}
	res, err := runnerFor(fakes).Run(context.Background(), []domain.SiteSpec{site("a")}, warehouseEspoo, defaultOpts())
	require.NoError(t, err)

	require.Len(t, res.Postings, 1)
	p := res.Postings[0]
	assert.Equal(t, "Warehouse Picker", p.Title)
	assert.Equal(t, "Espoo", p.LocationText)
	assert.Equal(t, "https://a.example/1", p.URL)
	assert.Equal(t, []string{"warehouse"}, p.MatchedTerms)
	assert.Positive(t, p.Score)

	assert.Equal(t, domain.SiteCounters{
		Site: "a", Fetched: 4, Skipped: 2, Invalid: 1, Matched: 1, Kept: 1, Duration: res.Sites[0].Duration,
	}, res.Sites[0])
	assert.Equal(t, domain.Totals{Sites: 1, SitesOK: 1, Fetched: 4, Matched: 1, Postings: 1}, res.Totals)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, fixedNow, res.StartedAt)
	assert.Equal(t, warehouseEspoo, res.Filters)
	assert.Empty(t, res.Warning())
}

func TestRunRespectsCap(t *testing.T) {
	var many []domain.RawRecord
	for i := 0; i < 10; i++ {
		many = append(many, rec(fmt.Sprintf("Warehouse worker %d", i), "Espoo", fmt.Sprintf("https://a.example/%d", i)))
	}
	fakes := map[string]*fakeFetcher{"a": {records: many}}
	opts := defaultOpts()
	opts.CapPerSite = 3

	res, err := runnerFor(fakes).Run(context.Background(), []domain.SiteSpec{site("a")}, warehouseEspoo, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Sites[0].Fetched)
	assert.Len(t, res.Postings, 3)
	assert.Equal(t, "Warehouse worker 0", res.Postings[0].Title)
}

func TestRunPartialFailure(t *testing.T) {
	fakes := map[string]*fakeFetcher{
		"a": {err: types.Unavailable("a", errors.New("status 503"))},
		"b": {records: []domain.RawRecord{rec("Warehouse Operative", "Espoo", "https://b.example/1")}},
	}
	res, err := runnerFor(fakes).Run(context.Background(), []domain.SiteSpec{site("a"), site("b")}, warehouseEspoo, defaultOpts())
	require.NoError(t, err)

	require.Len(t, res.Postings, 1)
	assert.Equal(t, "b", res.Postings[0].SourceSite)
	assert.False(t, res.Sites[0].OK())
	assert.Contains(t, res.Sites[0].Error, "source unavailable")
	assert.True(t, res.Sites[1].OK())
	assert.Equal(t, 1, res.Totals.SitesOK)
	assert.Equal(t, "1/2 sites unavailable", res.Warning())
}

func TestRunAllSitesFailedCarriesWarning(t *testing.T) {
	fakes := map[string]*fakeFetcher{
		"a": {err: errors.New("dial tcp: refused")},
		"b": {panics: true},
	}
	res, err := runnerFor(fakes).Run(context.Background(), []domain.SiteSpec{site("a"), site("b")}, warehouseEspoo, defaultOpts())
	require.NoError(t, err)
	assert.Empty(t, res.Postings)
	assert.Equal(t, 0, res.Totals.SitesOK)
	assert.Contains(t, res.Warning(), "no site succeeded")
	assert.Contains(t, res.Sites[1].Error, "panic")
	assert.Contains(t, res.Summary(), "warning:")
}

func TestRunSiteTimeout(t *testing.T) {
	fakes := map[string]*fakeFetcher{
		"slow": {delay: 5 * time.Second, records: []domain.RawRecord{rec("Warehouse", "Espoo", "https://slow.example/1")}},
		"fast": {records: []domain.RawRecord{rec("Warehouse", "Espoo", "https://fast.example/1")}},
	}
	slow := site("slow")
	slow.Timeout = domain.Duration(30 * time.Millisecond)

	start := time.Now()
	res, err := runnerFor(fakes).Run(context.Background(), []domain.SiteSpec{slow, site("fast")}, warehouseEspoo, defaultOpts())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Contains(t, res.Sites[0].Error, "deadline")
	require.Len(t, res.Postings, 1)
	assert.Equal(t, "fast", res.Postings[0].SourceSite)
}

func TestRunSiteTimeoutDropsPartialRecords(t *testing.T) {
	fakes := map[string]*fakeFetcher{
		"partial": {overrun: true, records: []domain.RawRecord{rec("Warehouse", "Espoo", "https://partial.example/1")}},
		"fast":    {records: []domain.RawRecord{rec("Warehouse", "Espoo", "https://fast.example/1")}},
	}
	partial := site("partial")
	partial.Timeout = domain.Duration(30 * time.Millisecond)

	res, err := runnerFor(fakes).Run(context.Background(), []domain.SiteSpec{partial, site("fast")}, warehouseEspoo, defaultOpts())
	require.NoError(t, err)
	assert.Contains(t, res.Sites[0].Error, "deadline")
	assert.Zero(t, res.Sites[0].Fetched)
	assert.Zero(t, res.Sites[0].Kept)
	require.Len(t, res.Postings, 1)
	assert.Equal(t, "fast", res.Postings[0].SourceSite)
	assert.Equal(t, 1, res.Totals.SitesOK)
}

// The same posting from two sites is attributed to the site declared first,
// whichever finishes first.
func TestRunDedupFollowsSiteOrderNotTiming(t *testing.T) {
	shared := "https://jobs.example.com/posting/7"
	for _, slowFirst := range []bool{true, false} {
		first := &fakeFetcher{records: []domain.RawRecord{rec("Warehouse lead", "Espoo", shared)}}
		second := &fakeFetcher{records: []domain.RawRecord{
			rec("Warehouse lead", "Espoo", shared+"?utm_source=aggregator"),
			rec("Warehouse helper", "Espoo", "https://jobs.example.com/posting/8"),
		}}
		if slowFirst {
			first.delay = 60 * time.Millisecond
		} else {
			second.delay = 60 * time.Millisecond
		}
		fakes := map[string]*fakeFetcher{"first": first, "second": second}

		res, err := runnerFor(fakes).Run(context.Background(), []domain.SiteSpec{site("first"), site("second")}, warehouseEspoo, defaultOpts())
		require.NoError(t, err)
		require.Len(t, res.Postings, 2)
		assert.Equal(t, "first", res.Postings[0].SourceSite)
		assert.Equal(t, shared, res.Postings[0].URL)
		assert.Equal(t, "second", res.Postings[1].SourceSite)
		assert.Equal(t, 1, res.Sites[1].Duplicates)
		assert.Equal(t, 1, res.Sites[1].Kept)
		assert.Equal(t, 1, res.Totals.Duplicates)
	}
}

func TestRunConfigErrorsBeforeFetching(t *testing.T) {
	f := &fakeFetcher{records: []domain.RawRecord{rec("Warehouse", "Espoo", "https://a.example/1")}}
	r := runnerFor(map[string]*fakeFetcher{"a": f})

	cases := []struct {
		name  string
		sites []domain.SiteSpec
		fc    domain.FilterConfig
		opts  Options
	}{
		{"no sites", nil, warehouseEspoo, defaultOpts()},
		{"no keywords", []domain.SiteSpec{site("a")}, domain.FilterConfig{Locations: []string{"Espoo"}}, defaultOpts()},
		{"duplicate ids", []domain.SiteSpec{site("a"), site("A")}, warehouseEspoo, defaultOpts()},
		{"zero cap", []domain.SiteSpec{site("a")}, warehouseEspoo, Options{Concurrency: 1}},
		{"zero concurrency", []domain.SiteSpec{site("a")}, warehouseEspoo, Options{CapPerSite: 1}},
		{"bad sort", []domain.SiteSpec{site("a")}, warehouseEspoo, Options{CapPerSite: 1, Concurrency: 1, Sort: "alphabetical"}},
		{"unknown kind", []domain.SiteSpec{{ID: "a", Kind: "ftp", URL: "ftp://a.example"}}, warehouseEspoo, defaultOpts()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := r.Run(context.Background(), c.sites, c.fc, c.opts)
			var ce *config.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.NotEmpty(t, ce.Problems)
		})
	}
	assert.Zero(t, atomic.LoadInt32(&f.calls), "no adapter may run when the input is invalid")
}

func TestRunSortOrders(t *testing.T) {
	fakes := map[string]*fakeFetcher{
		"a": {records: []domain.RawRecord{
			{"title": "Helper", "snippet": "warehouse shifts", "location": "Espoo", "link": "https://a.example/1", "posted": "2024-05-01"},
			{"title": "Warehouse picker", "location": "Espoo", "link": "https://a.example/2", "posted": "2024-05-18"},
			{"title": "Warehouse driver", "location": "Espoo", "link": "https://a.example/3"},
		}},
	}
	sites := []domain.SiteSpec{site("a")}

	opts := defaultOpts()
	res, err := runnerFor(fakes).Run(context.Background(), sites, warehouseEspoo, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Helper", "Warehouse picker", "Warehouse driver"}, titles(res.Postings))

	opts.Sort = rank.OrderRecent
	res, err = runnerFor(fakes).Run(context.Background(), sites, warehouseEspoo, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Warehouse picker", "Helper", "Warehouse driver"}, titles(res.Postings))

	opts.Sort = rank.OrderScore
	res, err = runnerFor(fakes).Run(context.Background(), sites, warehouseEspoo, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Warehouse picker", "Warehouse driver", "Helper"}, titles(res.Postings))
}

func TestRunPublishesProgress(t *testing.T) {
	fakes := map[string]*fakeFetcher{"a": {records: []domain.RawRecord{rec("Warehouse", "Espoo", "https://a.example/1")}}}
	r := runnerFor(fakes)
	r.Hub = events.NewHub()
	ch := r.Hub.Subscribe()

	res, err := r.Run(context.Background(), []domain.SiteSpec{site("a")}, warehouseEspoo, defaultOpts())
	require.NoError(t, err)
	r.Hub.Unsubscribe(ch)

	var got []string
	for line := range ch {
		evt, err := events.Parse(line)
		require.NoError(t, err)
		assert.Equal(t, res.RunID, evt.RequestID)
		got = append(got, evt.Type)
	}
	assert.Equal(t, []string{events.RunStarted, events.SiteStarted, events.SiteFinished, events.RunFinished}, got)
}

func titles(ps []domain.Posting) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Title
	}
	return out
}

func TestSummaryListsEverySite(t *testing.T) {
	fakes := map[string]*fakeFetcher{
		"a": {records: []domain.RawRecord{rec("Warehouse", "Espoo", "https://a.example/1")}},
		"b": {err: errors.New("nope")},
	}
	res, err := runnerFor(fakes).Run(context.Background(), []domain.SiteSpec{site("a"), site("b")}, warehouseEspoo, defaultOpts())
	require.NoError(t, err)
	lines := strings.Split(res.Summary(), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "a "))
	assert.True(t, strings.HasPrefix(lines[1], "b "))
	assert.Contains(t, lines[1], "error=")
}
