package events

import (
	"encoding/json"
	"time"
)

// Event types published during a run.
const (
	RunStarted   = "run_started"
	SiteStarted  = "site_started"
	SiteFinished = "site_finished"
	RunFinished  = "run_finished"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type SiteData struct {
	Site     string `json:"site"`
	Kind     string `json:"kind,omitempty"`
	Fetched  int    `json:"fetched,omitempty"`
	Skipped  int    `json:"skipped,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration,omitempty"`
}

type RunData struct {
	Sites    int    `json:"sites"`
	SitesOK  int    `json:"sites_ok,omitempty"`
	Postings int    `json:"postings,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// Parse decodes an event line produced by MakeEvent.
func Parse(line string) (Event, error) {
	var e Event
	err := json.Unmarshal([]byte(line), &e)
	return e, err
}
