package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/scrape/types"
	"jobagg-engine/internal/scrape/util"
)

const defaultAPI = "https://api.lever.co/v0/postings/"

// Scraper reads a Lever board through its public postings API.
// site.Board is the company slug (api.lever.co/v0/postings/<slug>).
type Scraper struct {
	client *util.Client
}

func New(client *util.Client) *Scraper {
	return &Scraper{client: client}
}

func (s *Scraper) Name() string { return "lever" }

func (s *Scraper) Fields() domain.FieldMap {
	return domain.FieldMap{
		domain.FieldTitle:    "text",
		domain.FieldURL:      "hostedUrl",
		domain.FieldLocation: "categories.location",
		domain.FieldSnippet:  "descriptionPlain",
		domain.FieldPosted:   "createdAt",
		domain.FieldCompany:  "company",
		domain.FieldSalary:   "salaryRange",
	}
}

type leverPosting struct {
	ID               string `json:"id"`
	Text             string `json:"text"` // title
	HostedURL        string `json:"hostedUrl"`
	CreatedAt        int64  `json:"createdAt"` // ms epoch
	DescriptionPlain string `json:"descriptionPlain"`
	Description      string `json:"description"` // html
	WorkplaceType    string `json:"workplaceType"`
	Categories       struct {
		Location   string `json:"location"`
		Team       string `json:"team"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
	SalaryRange *struct {
		Min      float64 `json:"min"`
		Max      float64 `json:"max"`
		Currency string  `json:"currency"`
		Interval string  `json:"interval"`
	} `json:"salaryRange"`
}

func (s *Scraper) endpoint(site domain.SiteSpec, limit int) (string, error) {
	base := strings.TrimSpace(site.Endpoint)
	if base == "" {
		if strings.TrimSpace(site.Board) == "" {
			return "", fmt.Errorf("lever site needs board or endpoint")
		}
		base = defaultAPI + url.PathEscape(strings.TrimSpace(site.Board))
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("mode", "json")
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Scraper) Fetch(ctx context.Context, site domain.SiteSpec, limit int) (types.FetchResult, error) {
	var res types.FetchResult

	apiURL, err := s.endpoint(site, limit)
	if err != nil {
		return res, types.Unavailable(site.ID, err)
	}

	body, err := s.client.Get(ctx, apiURL, "application/json")
	if err != nil {
		return res, types.Unavailable(site.ID, fmt.Errorf("lever get: %w", err))
	}

	var postings []json.RawMessage
	if err := json.Unmarshal(body, &postings); err != nil {
		return res, types.Unavailable(site.ID, fmt.Errorf("lever decode: %w", err))
	}

	company := util.FirstNonEmpty(site.Company, site.Board)
	for _, raw := range postings {
		if len(res.Records) >= limit {
			break
		}
		var p leverPosting
		if err := json.Unmarshal(raw, &p); err != nil {
			res.Skipped++
			continue
		}
		if p.ID == "" || p.HostedURL == "" || strings.TrimSpace(p.Text) == "" {
			res.Skipped++
			continue
		}

		rec := domain.RawRecord{
			"id":                    p.ID,
			"text":                  p.Text,
			"hostedUrl":             p.HostedURL,
			"descriptionPlain":      util.FirstNonEmpty(p.DescriptionPlain, p.Description),
			"categories.location":   p.Categories.Location,
			"categories.team":       p.Categories.Team,
			"categories.commitment": p.Categories.Commitment,
			"workplaceType":         p.WorkplaceType,
			"company":               company,
		}
		if p.CreatedAt > 0 {
			rec["createdAt"] = strconv.FormatInt(p.CreatedAt, 10)
		}
		if sr := p.SalaryRange; sr != nil && (sr.Min > 0 || sr.Max > 0) {
			rec["salaryRange"] = fmt.Sprintf("%.0f–%.0f %s %s", sr.Min, sr.Max, sr.Currency, sr.Interval)
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}
