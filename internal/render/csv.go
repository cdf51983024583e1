package render

import (
	"bytes"
	"encoding/csv"
	"time"

	"jobagg-engine/internal/domain"
)

var csvHeader = []string{"source_site", "title", "company", "location_text", "url", "posted_at"}

func encodeCSV(result domain.RunResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, p := range result.Postings {
		if err := w.Write([]string{
			p.SourceSite, p.Title, p.Company, p.LocationText, p.URL, formatPosted(p.PostedAt),
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatPosted(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
