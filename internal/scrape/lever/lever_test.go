package lever

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/scrape/types"
	"jobagg-engine/internal/scrape/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postings = `[
  {"id":"a1","text":"Warehouse Associate","hostedUrl":"https://jobs.lever.co/acme/a1","createdAt":1714550400000,
   "descriptionPlain":"Picking and packing","categories":{"location":"Espoo","team":"Logistics","commitment":"Full-time"},
   "salaryRange":{"min":2400,"max":2800,"currency":"EUR","interval":"per-month-salary"}},
  {"id":"a2","text":"","hostedUrl":"https://jobs.lever.co/acme/a2"},
  "not an object",
  {"id":"a3","text":"Cleaner","hostedUrl":"https://jobs.lever.co/acme/a3","categories":{"location":"Helsinki"}}
]`

func TestFetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(postings))
	}))
	defer srv.Close()

	s := New(util.NewClient(5*time.Second, nil))
	site := domain.SiteSpec{ID: "acme", Kind: domain.KindLever, Board: "acme", Endpoint: srv.URL + "/v0/postings/acme", Company: "Acme"}

	res, err := s.Fetch(context.Background(), site, 50)
	require.NoError(t, err)
	assert.Equal(t, "limit=50&mode=json", gotQuery)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.Skipped)

	fields := s.Fields()
	r := res.Records[0]
	assert.Equal(t, "Warehouse Associate", r[fields.Key(domain.FieldTitle)])
	assert.Equal(t, "https://jobs.lever.co/acme/a1", r[fields.Key(domain.FieldURL)])
	assert.Equal(t, "Espoo", r[fields.Key(domain.FieldLocation)])
	assert.Equal(t, "1714550400000", r[fields.Key(domain.FieldPosted)])
	assert.Equal(t, "Acme", r[fields.Key(domain.FieldCompany)])
	assert.Contains(t, r[fields.Key(domain.FieldSalary)], "2400")
}

func TestFetchBadPayloadIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false}`))
	}))
	defer srv.Close()

	s := New(util.NewClient(5*time.Second, nil))
	_, err := s.Fetch(context.Background(), domain.SiteSpec{ID: "acme", Endpoint: srv.URL}, 10)
	assert.ErrorIs(t, err, types.ErrSourceUnavailable)
}

func TestEndpointDefaultsToPublicAPI(t *testing.T) {
	u, err := New(nil).endpoint(domain.SiteSpec{Board: "acme"}, 5)
	require.NoError(t, err)
	assert.Equal(t, "https://api.lever.co/v0/postings/acme?limit=5&mode=json", u)

	_, err = New(nil).endpoint(domain.SiteSpec{}, 5)
	assert.Error(t, err)
}
