package greenhouse

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

const defaultAPI = "https://boards-api.greenhouse.io/v1/boards/"

// Scraper reads a Greenhouse job board via the public boards API.
// site.Board is the board token (boards.greenhouse.io/<token>).
type Scraper struct {
	client *util.Client
}

func New(client *util.Client) *Scraper {
	return &Scraper{client: client}
}

func (s *Scraper) Name() string { return "greenhouse" }

func (s *Scraper) Fields() domain.FieldMap {
	return domain.FieldMap{
		domain.FieldTitle:    "title",
		domain.FieldURL:      "absolute_url",
		domain.FieldLocation: "location.name",
		domain.FieldSnippet:  "content",
		domain.FieldPosted:   "updated_at",
		domain.FieldCompany:  "company_name",
	}
}

type boardResponse struct {
	Jobs []json.RawMessage `json:"jobs"`
}

type ghJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	UpdatedAt   string `json:"updated_at"`
	FirstPub    string `json:"first_published"`
	Content     string `json:"content"` // entity-escaped html
	CompanyName string `json:"company_name"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
}

func (s *Scraper) endpoint(site domain.SiteSpec) (string, error) {
	base := strings.TrimSpace(site.Endpoint)
	if base == "" {
		if strings.TrimSpace(site.Board) == "" {
			return "", fmt.Errorf("greenhouse site needs board or endpoint")
		}
		base = defaultAPI + url.PathEscape(strings.TrimSpace(site.Board)) + "/jobs"
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("content", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Scraper) Fetch(ctx context.Context, site domain.SiteSpec, limit int) (types.FetchResult, error) {
	var res types.FetchResult

	apiURL, err := s.endpoint(site)
	if err != nil {
		return res, types.Unavailable(site.ID, err)
	}

	body, err := s.client.Get(ctx, apiURL, "application/json")
	if err != nil {
		return res, types.Unavailable(site.ID, fmt.Errorf("greenhouse get board: %w", err))
	}

	var br boardResponse
	if err := json.Unmarshal(body, &br); err != nil {
		return res, types.Unavailable(site.ID, fmt.Errorf("greenhouse decode: %w", err))
	}
	if br.Jobs == nil {
		return res, types.Unavailable(site.ID, fmt.Errorf("greenhouse: response has no jobs array"))
	}

	for _, raw := range br.Jobs {
		if len(res.Records) >= limit {
			break
		}
		var j ghJob
		if err := json.Unmarshal(raw, &j); err != nil {
			res.Skipped++
			continue
		}
		if strings.TrimSpace(j.Title) == "" || strings.TrimSpace(j.AbsoluteURL) == "" {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, domain.RawRecord{
			"id":            strconv.FormatInt(j.ID, 10),
			"title":         j.Title,
			"absolute_url":  j.AbsoluteURL,
			"location.name": j.Location.Name,
			"content":       j.Content,
			"updated_at":    util.FirstNonEmpty(j.FirstPub, j.UpdatedAt),
			"company_name":  util.FirstNonEmpty(site.Company, j.CompanyName, site.Board),
		})
	}
	return res, nil
}
