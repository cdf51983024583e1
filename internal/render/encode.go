package render

import (
	"fmt"
	"log"

	"jobagg-engine/internal/domain"
)

type Payload struct {
	Format Format
	Data   []byte
}

// Encode renders result once per requested format. Each format is encoded
// on its own; a failure is reported and the rest still produce payloads.
func Encode(result domain.RunResult, formats []Format) ([]Payload, []*RenderError) {
	var (
		out      []Payload
		failures []*RenderError
	)
	for _, f := range formats {
		data, err := EncodeOne(result, f)
		if err != nil {
			log.Printf("[render] %s: %v", f, err)
			failures = append(failures, &RenderError{Format: f, Err: err})
			continue
		}
		out = append(out, Payload{Format: f, Data: data})
	}
	return out, failures
}

func EncodeOne(result domain.RunResult, f Format) (data []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			data, err = nil, fmt.Errorf("encoder panic: %v", p)
		}
	}()

	switch f {
	case FormatCSV:
		return encodeCSV(result)
	case FormatJSON:
		return encodeJSON(result)
	case FormatHTML:
		return encodeHTML(result)
	case FormatLinks:
		return encodeLinks(result)
	case FormatSQLite:
		return encodeSQLite(result)
	default:
		return nil, fmt.Errorf("unknown output format %q", f)
	}
}
