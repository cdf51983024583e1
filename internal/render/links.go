package render

import (
	"bytes"

	"jobagg-engine/internal/domain"
)

// encodeLinks writes one URL per line in final order; postings without a
// URL are left out.
func encodeLinks(result domain.RunResult) ([]byte, error) {
	var buf bytes.Buffer
	for _, p := range result.Postings {
		if p.URL == "" {
			continue
		}
		buf.WriteString(p.URL)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
