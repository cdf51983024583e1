package workday

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/scrape/types"
	"jobagg-engine/internal/scrape/util"
)

// pageSize is the largest page the CXS endpoint accepts.
const pageSize = 20

var ErrWorkdayBlocked = errors.New("workday blocked by cloudflare")

// Scraper pages through a Workday career site's CXS jobs endpoint.
// site.URL is the public board, e.g. https://acme.wd3.myworkdayjobs.com/en-US/External.
type Scraper struct {
	client *util.Client
}

func New(client *util.Client) *Scraper {
	return &Scraper{client: client}
}

func (s *Scraper) Name() string { return "workday" }

func (s *Scraper) Fields() domain.FieldMap {
	return domain.FieldMap{
		domain.FieldTitle:    "title",
		domain.FieldURL:      "externalUrl",
		domain.FieldLocation: "locationsText",
		domain.FieldPosted:   "postedOn",
		domain.FieldCompany:  "company",
		domain.FieldSnippet:  "bulletFields",
	}
}

type board struct {
	Scheme string
	Host   string
	Tenant string
	Site   string
	Locale string
}

type wdRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

type wdResponse struct {
	Total       int               `json:"total"`
	JobPostings []json.RawMessage `json:"jobPostings"`
}

type wdPosting struct {
	Title         string   `json:"title"`
	ExternalPath  string   `json:"externalPath"`
	ExternalURL   string   `json:"externalUrl"`
	LocationsText string   `json:"locationsText"`
	Location      string   `json:"location"`
	PostedOn      string   `json:"postedOn"`
	PostedOnDate  string   `json:"postedOnDate"`
	BulletFields  []string `json:"bulletFields"`
}

func parseBoardURL(raw string) (board, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return board{}, errors.New("empty board url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return board{}, err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Host == "" {
		return board{}, fmt.Errorf("missing host in %q", raw)
	}

	parts := strings.Split(u.Hostname(), ".")
	if len(parts) < 3 {
		return board{}, fmt.Errorf("unexpected host %q", u.Host)
	}
	tenant := parts[0]

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return board{}, fmt.Errorf("unexpected path %q", u.Path)
	}

	// Detect locale like "en-US" (case-insensitive)
	locale := ""
	if len(segs) >= 2 && looksLikeLocale(segs[0]) {
		locale = normalizeLocale(segs[0])
		segs = segs[1:]
	}

	return board{
		Scheme: u.Scheme,
		Host:   u.Host,
		Tenant: tenant,
		Site:   segs[len(segs)-1],
		Locale: locale,
	}, nil
}

func looksLikeLocale(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != '-' {
		return false
	}
	return isAlpha(s[0:2]) && isAlpha(s[3:5])
}

func normalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 5 && s[2] == '-' {
		return strings.ToLower(s[0:2]) + "-" + strings.ToUpper(s[3:5])
	}
	return s
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}

func (b board) jobsEndpoint() string {
	base := fmt.Sprintf("%s://%s/wday/cxs/%s/%s/jobs", b.Scheme, b.Host, b.Tenant, b.Site)
	if b.Locale == "" {
		return base
	}
	// Workday accepts locale via query param on many tenants
	return base + "?locale=" + url.QueryEscape(b.Locale)
}

func (b board) absoluteJobURL(p wdPosting) string {
	if p.ExternalURL != "" {
		return strings.TrimSpace(p.ExternalURL)
	}
	path := strings.TrimSpace(p.ExternalPath)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	prefix := ""
	if b.Locale != "" {
		prefix = "/" + b.Locale
	}
	return fmt.Sprintf("%s://%s%s/%s%s", b.Scheme, b.Host, prefix, b.Site, path)
}

func (s *Scraper) Fetch(ctx context.Context, site domain.SiteSpec, limit int) (types.FetchResult, error) {
	var res types.FetchResult

	boardURL := util.FirstNonEmpty(site.URL, firstPage(site))
	b, err := parseBoardURL(boardURL)
	if err != nil {
		return res, types.Unavailable(site.ID, err)
	}
	endpoint := util.FirstNonEmpty(site.Endpoint, b.jobsEndpoint())

	// Per-site cookie jar so CALYPSO_CSRF_TOKEN / CXS session cookies persist
	// across the paged POSTs.
	jar, _ := cookiejar.New(nil)
	hc := *s.client
	if s.client.HC != nil {
		inner := *s.client.HC
		inner.Jar = jar
		hc.HC = &inner
	} else {
		hc.HC = &http.Client{Jar: jar}
	}

	csrf, bootErr := bootstrapSession(ctx, &hc, boardURL)
	if errors.Is(bootErr, ErrWorkdayBlocked) {
		return res, types.Unavailable(site.ID, bootErr)
	}
	if bootErr != nil {
		log.Printf("[scrape:%s] workday bootstrap: %v", site.ID, bootErr)
	}

	company := util.FirstNonEmpty(site.Company, b.Tenant)
	lang := util.FirstNonEmpty(b.Locale, "en-US")

	for offset := 0; len(res.Records) < limit; offset += pageSize {
		payload, _ := json.Marshal(wdRequest{
			AppliedFacets: map[string]any{},
			Limit:         pageSize,
			Offset:        offset,
		})

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return res, types.Unavailable(site.ID, err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Origin", fmt.Sprintf("%s://%s", b.Scheme, b.Host))
		req.Header.Set("Referer", strings.TrimRight(boardURL, "/"))
		req.Header.Set("Accept-Language", lang)
		if csrf != "" {
			req.Header.Set("x-calypso-csrf-token", csrf)
		}

		resp, err := hc.Do(req)
		if err != nil {
			if offset == 0 {
				return res, types.Unavailable(site.ID, fmt.Errorf("workday post jobs: %w", err))
			}
			log.Printf("[scrape:%s] workday offset=%d: %v", site.ID, offset, err)
			break
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		resp.Body.Close()

		if resp.StatusCode >= 400 {
			err := fmt.Errorf("workday status %d server=%q body=%s",
				resp.StatusCode, resp.Header.Get("Server"), util.Truncate(string(data), 240))
			if offset == 0 {
				return res, types.Unavailable(site.ID, err)
			}
			log.Printf("[scrape:%s] %v", site.ID, err)
			break
		}

		var jr wdResponse
		if err := json.Unmarshal(data, &jr); err != nil {
			if offset == 0 {
				return res, types.Unavailable(site.ID, fmt.Errorf("workday decode: %w body=%s", err, util.Truncate(string(data), 240)))
			}
			break
		}
		if len(jr.JobPostings) == 0 {
			break
		}

		for _, raw := range jr.JobPostings {
			if len(res.Records) >= limit {
				break
			}
			var p wdPosting
			if err := json.Unmarshal(raw, &p); err != nil {
				res.Skipped++
				continue
			}
			title := strings.TrimSpace(p.Title)
			jobURL := b.absoluteJobURL(p)
			if title == "" || jobURL == "" {
				res.Skipped++
				continue
			}
			res.Records = append(res.Records, domain.RawRecord{
				"title":         title,
				"externalUrl":   jobURL,
				"locationsText": util.FirstNonEmpty(p.LocationsText, p.Location),
				"postedOn":      util.FirstNonEmpty(p.PostedOnDate, p.PostedOn),
				"bulletFields":  strings.Join(p.BulletFields, " · "),
				"company":       company,
			})
		}

		if jr.Total > 0 && offset+pageSize >= jr.Total {
			break
		}
	}

	// a deadline hit mid-paging leaves an incomplete board
	if err := ctx.Err(); err != nil {
		return types.FetchResult{}, types.Unavailable(site.ID, err)
	}
	return res, nil
}

func firstPage(site domain.SiteSpec) string {
	if pages := site.StartPages(); len(pages) > 0 {
		return pages[0].URL
	}
	return ""
}

func bootstrapSession(ctx context.Context, client *util.Client, boardURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, boardURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// Read a small preview first (for CF detection), then discard the rest.
	previewBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_, _ = io.Copy(io.Discard, resp.Body)

	if looksLikeCloudflareBlock(resp, string(previewBytes)) {
		return "", ErrWorkdayBlocked
	}

	u, _ := url.Parse(boardURL)
	if client.HC != nil && client.HC.Jar != nil {
		for _, c := range client.HC.Jar.Cookies(u) {
			if c.Name == "CALYPSO_CSRF_TOKEN" && c.Value != "" {
				return c.Value, nil
			}
		}
	}
	return "", fmt.Errorf("missing CALYPSO_CSRF_TOKEN cookie (status=%d)", resp.StatusCode)
}

func looksLikeCloudflareBlock(resp *http.Response, bodyPreview string) bool {
	server := strings.ToLower(resp.Header.Get("Server"))
	cfRay := resp.Header.Get("CF-RAY")

	low := strings.ToLower(bodyPreview)
	if strings.Contains(server, "cloudflare") && cfRay != "" && resp.StatusCode >= 400 {
		return true
	}
	if (strings.Contains(low, "cloudflare") && strings.Contains(low, "checking your browser")) ||
		(strings.Contains(low, "attention required") && strings.Contains(low, "cloudflare")) {
		return true
	}
	return resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests
}
