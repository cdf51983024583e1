package render

import (
	"context"
	"fmt"
	"os"
	"time"

	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/store"
)

// encodeSQLite builds a fresh database file holding only this run and
// returns its bytes.
func encodeSQLite(result domain.RunResult) ([]byte, error) {
	tmp, err := os.CreateTemp("", "jobagg-*.db")
	if err != nil {
		return nil, err
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := store.Migrate(db.Pool); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := store.WriteRun(ctx, db.Pool, result); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.Close(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
