package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"jobagg-engine/internal/domain"
)

// WriteRun stores result in one transaction. Postings keep their final
// order in the id column; a repeated dedup key is ignored.
func WriteRun(ctx context.Context, db *sql.DB, result domain.RunResult) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	kw, _ := json.Marshal(nonNil(result.Filters.Keywords))
	locs, _ := json.Marshal(nonNil(result.Filters.Locations))
	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (run_id, started_at, finished_at, keywords, locations)
VALUES (?, ?, ?, ?, ?);`,
		result.RunID, formatTime(result.StartedAt), formatTime(result.FinishedAt), string(kw), string(locs),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, c := range result.Sites {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO sites (run_id, position, site, fetched, skipped, invalid, matched, duplicates, kept, error, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			result.RunID, i, c.Site, c.Fetched, c.Skipped, c.Invalid, c.Matched, c.Duplicates, c.Kept, c.Error, c.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("insert site %q: %w", c.Site, err)
		}
	}

	for _, p := range result.Postings {
		if _, err := InsertPostingIgnore(ctx, tx, result.RunID, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func InsertPostingIgnore(ctx context.Context, db execer, runID string, p domain.Posting) (added bool, err error) {
	terms, _ := json.Marshal(nonNil(p.MatchedTerms))

	var posted any
	if p.PostedAt != nil {
		posted = formatTime(*p.PostedAt)
	}

	res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO postings (run_id, source_site, title, company, location_text, url, description_snippet, salary, posted_at, dedup_key, matched_terms, score)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		runID, p.SourceSite, p.Title, p.Company, p.LocationText, p.URL, p.Snippet, p.Salary, posted, p.DedupKey, string(terms), p.Score,
	)
	if err != nil {
		return false, fmt.Errorf("insert posting: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return true, nil
	}
	return n > 0, nil
}

// ListPostings reads back the postings of a run in stored order.
func ListPostings(ctx context.Context, db *sql.DB, runID string) ([]domain.Posting, error) {
	rows, err := db.QueryContext(ctx, `
SELECT source_site, title, company, location_text, url, description_snippet, salary, posted_at, dedup_key, matched_terms, score
FROM postings
WHERE run_id = ?
ORDER BY id;`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Posting
	for rows.Next() {
		var (
			p      domain.Posting
			posted sql.NullString
			terms  string
		)
		if err := rows.Scan(&p.SourceSite, &p.Title, &p.Company, &p.LocationText, &p.URL,
			&p.Snippet, &p.Salary, &posted, &p.DedupKey, &terms, &p.Score); err != nil {
			return nil, err
		}
		if posted.Valid {
			if t, err := time.Parse(time.RFC3339, posted.String); err == nil {
				t = t.UTC()
				p.PostedAt = &t
			}
		}
		_ = json.Unmarshal([]byte(terms), &p.MatchedTerms)
		if len(p.MatchedTerms) == 0 {
			p.MatchedTerms = nil
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
