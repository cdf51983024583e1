package util

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	relativeAgo = regexp.MustCompile(`(\d+)\+?\s*(minute|min|hour|hr|day|week|month|minuutti|tunti|paiva|viikko|kuukau)\w*\s+(ago|sitten)`)
	postedLabel = regexp.MustCompile(`^(posted|published|julkaistu|ilmoitettu|jätetty)\s*:?\s*`)
)

// ParsePosted turns a site's "posted" text into a timestamp. It understands
// epoch seconds/milliseconds, RFC3339, ISO and Finnish (d.m.yyyy) dates and
// relative phrases in English and Finnish ("3 days ago", "3 päivää sitten",
// "today", "eilen"). Anything else goes through dateparse. Returns nil when
// nothing fits.
func ParsePosted(text string, now time.Time) *time.Time {
	s := CleanText(text)
	if s == "" {
		return nil
	}
	at := func(t time.Time) *time.Time {
		t = t.UTC().Truncate(time.Second)
		return &t
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil && len(s) >= 9 {
		// Heuristic: treat >= 1e12 as ms, else seconds.
		if n >= 1_000_000_000_000 {
			return at(time.UnixMilli(n))
		}
		return at(time.Unix(n, 0))
	}

	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02", "2.1.2006", "2.1.2006 15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return at(t)
		}
	}

	low := postedLabel.ReplaceAllString(Fold(s), "")
	switch {
	case strings.HasPrefix(low, "today"), strings.HasPrefix(low, "tanaan"),
		strings.HasPrefix(low, "just posted"), strings.HasPrefix(low, "just now"):
		return at(now)
	case strings.HasPrefix(low, "yesterday"), strings.HasPrefix(low, "eilen"):
		return at(now.Add(-24 * time.Hour))
	}
	if m := relativeAgo.FindStringSubmatch(low); m != nil {
		n, _ := strconv.Atoi(m[1])
		var unit time.Duration
		switch m[2] {
		case "minute", "min", "minuutti":
			unit = time.Minute
		case "hour", "hr", "tunti":
			unit = time.Hour
		case "day", "paiva":
			unit = 24 * time.Hour
		case "week", "viikko":
			unit = 7 * 24 * time.Hour
		default:
			unit = 30 * 24 * time.Hour
		}
		return at(now.Add(-time.Duration(n) * unit))
	}

	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return at(t)
	}
	return nil
}
