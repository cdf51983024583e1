package main

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"jobagg-engine/internal/config"
	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/render"

	"github.com/dustin/go-humanize"
)

// loadConfig reads the site file, layers the flags over it and validates
// the result.
func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.Sites)
	if err != nil {
		return config.Config{}, fmt.Errorf("load sites: %w", err)
	}

	config.Overlay(&cfg, config.Overrides{
		Keywords:          opts.Keywords,
		Locations:         opts.Locations,
		CapPerSite:        opts.MaxPerSite,
		Concurrency:       opts.Concurrency,
		SiteTimeout:       opts.SiteTimeout,
		RequestsPerSecond: opts.RPS,
		MaxAgeDays:        opts.Days,
		Sort:              opts.Sort,
		Only:              opts.Only,
	})
	config.ApplyDefaults(&cfg)

	cfg, v := config.NormalizeAndValidate(cfg)
	for _, w := range v.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if err := v.Err(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func targets(opts Options) []render.Target {
	var out []render.Target
	add := func(f render.Format, path string) {
		if strings.TrimSpace(path) != "" {
			out = append(out, render.Target{Format: f, Path: path})
		}
	}
	add(render.FormatCSV, opts.OutCSV)
	add(render.FormatJSON, opts.OutJSON)
	add(render.FormatHTML, opts.OutHTML)
	add(render.FormatLinks, opts.OutLinks)
	add(render.FormatSQLite, opts.OutSQLite)
	return out
}

func printSummary(w io.Writer, result domain.RunResult, rep render.Report) {
	fmt.Fprintln(w, result.Summary())

	fmt.Fprintf(w, "Saved %s postings from %d/%d sites in %s\n",
		humanize.Comma(int64(len(result.Postings))), result.Totals.SitesOK, result.Totals.Sites,
		result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	for _, p := range rep.Payloads {
		fmt.Fprintf(w, "  %-6s %s\n", p.Format, humanize.Bytes(uint64(len(p.Data))))
	}
	if len(rep.Written) > 0 {
		fmt.Fprintf(w, "  -> %s\n", strings.Join(rep.Written, ", "))
	}
	for _, f := range rep.Failures {
		fmt.Fprintf(w, "  failed: %v\n", f)
	}
}
