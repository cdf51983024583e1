package domain

import "time"

// FilterConfig is read once at the start of a run.
type FilterConfig struct {
	Keywords  []string      `yaml:"keywords" json:"keywords"`
	Locations []string      `yaml:"locations" json:"locations"`
	MaxAge    time.Duration `yaml:"-" json:"-"`
}
