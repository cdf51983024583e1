package render

import "fmt"

// RenderError is a failure to encode or write one format. Other formats of
// the same run are unaffected.
type RenderError struct {
	Format Format
	Path   string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("render %s to %s: %v", e.Format, e.Path, e.Err)
	}
	return fmt.Sprintf("render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
