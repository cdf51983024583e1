package render

import (
	"bytes"
	"encoding/json"

	"jobagg-engine/internal/domain"
)

// encodeJSON writes the postings as an array; keys follow the Posting field
// order and non-ASCII text is kept as is.
func encodeJSON(result domain.RunResult) ([]byte, error) {
	postings := result.Postings
	if postings == nil {
		postings = []domain.Posting{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(postings); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeJSON reads back a structured payload.
func DecodeJSON(data []byte) ([]domain.Posting, error) {
	var out []domain.Posting
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
