package render

import (
	"fmt"
	"strings"
)

type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatHTML   Format = "html"
	FormatLinks  Format = "links"
	FormatSQLite Format = "sqlite"
)

// Formats lists every supported format in the order they are written.
var Formats = []Format{FormatCSV, FormatJSON, FormatHTML, FormatLinks, FormatSQLite}

// ParseFormat accepts a format name, a file extension or one of the
// generic names (tabular, structured, document, link-list).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv", "tabular":
		return FormatCSV, nil
	case "json", "structured":
		return FormatJSON, nil
	case "html", "htm", "document":
		return FormatHTML, nil
	case "links", "txt", "link-list", "linklist":
		return FormatLinks, nil
	case "sqlite", "db", "sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatLinks:
		return "text/plain; charset=utf-8"
	case FormatSQLite:
		return "application/vnd.sqlite3"
	}
	return "application/octet-stream"
}
