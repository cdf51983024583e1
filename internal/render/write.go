package render

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"jobagg-engine/internal/domain"

	"github.com/gofrs/flock"
)

// Target pairs an output format with its destination file.
type Target struct {
	Format Format
	Path   string
}

// Report describes a Write call. Failures never hide successes.
type Report struct {
	Payloads []Payload
	Written  []string
	Failures []*RenderError
}

func (r Report) OK() bool { return len(r.Failures) == 0 }

type Renderer struct {
	// LockTimeout bounds the wait for another process writing the same file.
	LockTimeout time.Duration
}

func NewRenderer() *Renderer {
	return &Renderer{LockTimeout: 10 * time.Second}
}

// Write encodes and writes every target independently.
func (r *Renderer) Write(ctx context.Context, result domain.RunResult, targets []Target) Report {
	var rep Report
	for _, t := range targets {
		data, err := EncodeOne(result, t.Format)
		if err != nil {
			log.Printf("[render] %s: %v", t.Format, err)
			rep.Failures = append(rep.Failures, &RenderError{Format: t.Format, Path: t.Path, Err: err})
			continue
		}
		rep.Payloads = append(rep.Payloads, Payload{Format: t.Format, Data: data})

		if err := r.writeFile(ctx, t.Path, data); err != nil {
			log.Printf("[render] %s -> %s: %v", t.Format, t.Path, err)
			rep.Failures = append(rep.Failures, &RenderError{Format: t.Format, Path: t.Path, Err: err})
			continue
		}
		log.Printf("[render] wrote %s (%d bytes)", t.Path, len(data))
		rep.Written = append(rep.Written, t.Path)
	}
	return rep
}

// writeFile replaces path atomically (tmp file + rename) while holding an
// advisory lock on path.lock.
func (r *Renderer) writeFile(ctx context.Context, path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("empty destination")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	lockPath := path + ".lock"
	lk := flock.New(lockPath)

	timeout := r.LockTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := lk.TryLockContext(lctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: busy", lockPath)
	}
	defer func() {
		_ = lk.Unlock()
		_ = os.Remove(lockPath)
	}()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
