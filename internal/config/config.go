package config

import (
	"fmt"
	"os"
	"time"

	"jobagg-engine/internal/domain"

	"gopkg.in/yaml.v3"
)

type Filters struct {
	Keywords   []string `yaml:"keywords"`
	Locations  []string `yaml:"locations"`
	MaxAgeDays int      `yaml:"max_age_days"`
}

type Run struct {
	CapPerSite        int             `yaml:"cap_per_site"`
	Concurrency       int             `yaml:"concurrency"`
	SiteTimeout       domain.Duration `yaml:"site_timeout"`
	RequestsPerSecond float64         `yaml:"requests_per_second"`
	Sort              string          `yaml:"sort"`
}

type Config struct {
	Sites   domain.SiteList `yaml:"sites"`
	Filters Filters         `yaml:"filters"`
	Run     Run             `yaml:"run"`
}

// FilterConfig converts the filter section into the run's FilterConfig.
func (c Config) FilterConfig() domain.FilterConfig {
	return domain.FilterConfig{
		Keywords:  c.Filters.Keywords,
		Locations: c.Filters.Locations,
		MaxAge:    time.Duration(c.Filters.MaxAgeDays) * 24 * time.Hour,
	}
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(b)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse accepts either a full document (sites/filters/run) or a bare
// name -> site mapping, the layout of older sites.yaml files.
func Parse(b []byte) (Config, error) {
	var cfg Config

	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return cfg, err
	}
	if len(doc.Content) == 0 {
		return cfg, nil
	}
	root := doc.Content[0]

	if root.Kind == yaml.MappingNode && !hasKey(root, "sites") {
		if err := root.Decode(&cfg.Sites); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	if err := root.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func hasKey(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return true
		}
	}
	return false
}
