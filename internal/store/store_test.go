package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"jobagg-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db.Pool))
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, Migrate(db.Pool))

	var v int
	require.NoError(t, db.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, schemaVersion, v)
}

func TestWriteRunRoundTrip(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	posted := time.Date(2024, 5, 18, 9, 30, 0, 0, time.FixedZone("EEST", 3*3600))
	res := domain.RunResult{
		RunID:      "r1",
		StartedAt:  time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2024, 5, 20, 12, 1, 0, 0, time.UTC),
		Filters:    domain.FilterConfig{Keywords: []string{"cook"}},
		Postings: []domain.Posting{
			{SourceSite: "a", Title: "Cook", URL: "https://a.example/1", PostedAt: &posted, DedupKey: "k1", MatchedTerms: []string{"cook"}, Score: 3},
			{SourceSite: "b", Title: "Kokki", Company: "Oy", DedupKey: "k2"},
		},
		Sites: []domain.SiteCounters{
			{Site: "a", Fetched: 3, Kept: 1, Duration: 2 * time.Second},
			{Site: "b", Error: "source unavailable"},
		},
	}
	require.NoError(t, WriteRun(ctx, db.Pool, res))

	got, err := ListPostings(ctx, db.Pool, "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Cook", got[0].Title)
	require.NotNil(t, got[0].PostedAt)
	assert.Equal(t, posted.UTC(), *got[0].PostedAt)
	assert.Equal(t, []string{"cook"}, got[0].MatchedTerms)
	assert.Nil(t, got[1].PostedAt)
	assert.Nil(t, got[1].MatchedTerms)

	var errText string
	var ms int64
	require.NoError(t, db.Pool.QueryRow(`SELECT error FROM sites WHERE run_id = ? AND site = 'b';`, "r1").Scan(&errText))
	require.NoError(t, db.Pool.QueryRow(`SELECT duration_ms FROM sites WHERE run_id = ? AND site = 'a';`, "r1").Scan(&ms))
	assert.Equal(t, "source unavailable", errText)
	assert.Equal(t, int64(2000), ms)
}

func TestInsertPostingIgnoreDuplicateKey(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	p := domain.Posting{SourceSite: "a", Title: "Cook", DedupKey: "k1"}

	added, err := InsertPostingIgnore(ctx, db.Pool, "r1", p)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = InsertPostingIgnore(ctx, db.Pool, "r1", p)
	require.NoError(t, err)
	assert.False(t, added)

	added, err = InsertPostingIgnore(ctx, db.Pool, "r2", p)
	require.NoError(t, err)
	assert.True(t, added)
}
