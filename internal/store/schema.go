package store

import "database/sql"

const schemaVersion = 1

// Migrate creates the snapshot schema: one runs row, the per-site counters
// and the postings of that run in final order.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	stmts := []string{`
CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL,
  keywords TEXT NOT NULL DEFAULT '[]',
  locations TEXT NOT NULL DEFAULT '[]'
);`, `
CREATE TABLE IF NOT EXISTS sites (
  run_id TEXT NOT NULL REFERENCES runs(run_id),
  position INTEGER NOT NULL,
  site TEXT NOT NULL,
  fetched INTEGER NOT NULL DEFAULT 0,
  skipped INTEGER NOT NULL DEFAULT 0,
  invalid INTEGER NOT NULL DEFAULT 0,
  matched INTEGER NOT NULL DEFAULT 0,
  duplicates INTEGER NOT NULL DEFAULT 0,
  kept INTEGER NOT NULL DEFAULT 0,
  error TEXT NOT NULL DEFAULT '',
  duration_ms INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (run_id, site)
);`, `
CREATE TABLE IF NOT EXISTS postings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL REFERENCES runs(run_id),
  source_site TEXT NOT NULL,
  title TEXT NOT NULL,
  company TEXT NOT NULL DEFAULT '',
  location_text TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL DEFAULT '',
  description_snippet TEXT NOT NULL DEFAULT '',
  salary TEXT NOT NULL DEFAULT '',
  posted_at TEXT,
  dedup_key TEXT NOT NULL,
  matched_terms TEXT NOT NULL DEFAULT '[]',
  score INTEGER NOT NULL DEFAULT 0
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_postings_run_key ON postings(run_id, dedup_key);`,
		`CREATE INDEX IF NOT EXISTS idx_postings_site ON postings(source_site);`,
		`PRAGMA user_version = 1;`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return tx.Commit()
}
