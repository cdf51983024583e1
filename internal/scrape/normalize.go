package scrape

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/scrape/util"
)

// ErrNormalization marks a raw record that cannot become a Posting. It is
// counted and dropped, never fatal.
var ErrNormalization = errors.New("normalization failure")

// snippetMaxRunes bounds description_snippet; matching runs on the snippet.
const snippetMaxRunes = 600

type Normalizer struct {
	Now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// Normalize maps raw through site.Fields onto the canonical schema. Display
// fields keep their casing; only markup and whitespace are cleaned.
func (n *Normalizer) Normalize(raw domain.RawRecord, site domain.SiteSpec) (domain.Posting, error) {
	get := func(field string) string {
		return raw[site.Fields.Key(field)]
	}

	title := util.StripHTML(get(domain.FieldTitle))
	if title == "" {
		return domain.Posting{}, fmt.Errorf("%w: missing title", ErrNormalization)
	}

	company := util.FirstNonEmpty(util.StripHTML(get(domain.FieldCompany)), site.Company)
	loc := util.NormalizeLocation(util.StripHTML(get(domain.FieldLocation)))
	if loc == "" {
		loc = util.CleanText(site.DefaultLocation)
	}

	link := strings.TrimSpace(get(domain.FieldURL))
	if link != "" {
		link = util.ResolveURL(site.BaseURL(), link)
	}
	if link == "" && company == "" {
		return domain.Posting{}, fmt.Errorf("%w: %q has neither url nor company", ErrNormalization, title)
	}

	now := time.Now
	if n != nil && n.Now != nil {
		now = n.Now
	}

	p := domain.Posting{
		SourceSite:   site.ID,
		Title:        title,
		Company:      util.CleanText(company),
		LocationText: loc,
		URL:          link,
		Snippet:      util.Truncate(util.StripHTML(get(domain.FieldSnippet)), snippetMaxRunes),
		Salary:       util.StripHTML(get(domain.FieldSalary)),
		PostedAt:     util.ParsePosted(get(domain.FieldPosted), now()),
	}
	p.DedupKey = DedupKey(p)
	return p, nil
}
