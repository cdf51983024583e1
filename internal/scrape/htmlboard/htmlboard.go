package htmlboard

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/scrape/types"
	"jobagg-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultMaxPages = 4
	defaultDelay    = 800 * time.Millisecond
)

// nextLinkTexts are anchor texts that usually lead to the next result page.
var nextLinkTexts = regexp.MustCompile(`(?i)^\s*(seuraava|next|näytä lisää|load more)(\s|$|[›»>→.])`)

// Scraper extracts listing cards from server-rendered result pages using the
// site's CSS selectors, with a regex link-harvesting fallback for sites whose
// markup changes often.
type Scraper struct {
	client *util.Client
}

func New(client *util.Client) *Scraper {
	return &Scraper{client: client}
}

func (s *Scraper) Name() string { return "html" }

// Fields is the identity mapping; cards are read straight into canonical keys.
func (s *Scraper) Fields() domain.FieldMap { return domain.FieldMap{} }

func (s *Scraper) Fetch(ctx context.Context, site domain.SiteSpec, limit int) (types.FetchResult, error) {
	var res types.FetchResult

	pages := site.StartPages()
	if len(pages) == 0 {
		return res, types.Unavailable(site.ID, fmt.Errorf("no start url configured"))
	}

	var linkPat *regexp.Regexp
	if p := site.Selectors.LinkPattern; p != "" {
		re, err := regexp.Compile(p)
		if err != nil {
			return res, types.Unavailable(site.ID, fmt.Errorf("bad link_pattern: %w", err))
		}
		linkPat = re
	}

	maxPages := site.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	delay := site.Delay.Std()
	if delay <= 0 {
		delay = defaultDelay
	}

	var (
		firstErr  error
		pagesRead int
	)
	for _, start := range pages {
		url := start.URL
		visited := map[string]bool{}
		for n := 0; url != "" && n < maxPages && len(res.Records) < limit; n++ {
			if visited[url] {
				break
			}
			visited[url] = true

			body, err := s.client.Get(ctx, url, "text/html,application/xhtml+xml")
			if err != nil {
				log.Printf("[scrape:%s] page %q: %v", site.ID, url, err)
				if firstErr == nil {
					firstErr = err
				}
				break
			}
			doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
			if err != nil {
				log.Printf("[scrape:%s] parse %q: %v", site.ID, url, err)
				if firstErr == nil {
					firstErr = err
				}
				break
			}
			pagesRead++

			recs, skipped := extract(doc, site.Selectors, linkPat, pageBase(site, url), start.DefaultLocation)
			res.Skipped += skipped
			for _, r := range recs {
				if len(res.Records) >= limit {
					break
				}
				res.Records = append(res.Records, r)
			}
			if len(res.Records) >= limit {
				break
			}

			url = findNextURL(doc, site.Selectors, pageBase(site, url))
			if url != "" && !visited[url] {
				if err := util.Sleep(ctx, delay); err != nil {
					return types.FetchResult{}, types.Unavailable(site.ID, err)
				}
			}
		}
		if len(res.Records) >= limit || ctx.Err() != nil {
			break
		}
	}

	if pagesRead == 0 && firstErr != nil {
		return types.FetchResult{}, types.Unavailable(site.ID, firstErr)
	}
	if err := ctx.Err(); err != nil {
		return types.FetchResult{}, types.Unavailable(site.ID, err)
	}
	return res, nil
}

func pageBase(site domain.SiteSpec, pageURL string) string {
	if site.Selectors.Base != "" {
		return site.Selectors.Base
	}
	return pageURL
}

// extract pulls records out of one result page. Cards missing a title or a
// link are skipped and counted.
func extract(doc *goquery.Document, sel domain.Selectors, linkPat *regexp.Regexp, base, defaultLoc string) ([]domain.RawRecord, int) {
	var (
		out     []domain.RawRecord
		skipped int
	)
	seen := map[string]bool{}

	if sel.Container != "" {
		doc.Find(sel.Container).Each(func(_ int, card *goquery.Selection) {
			title := selText(card, sel.Title)
			href := selAttr(card, sel.Link, "href")
			if href == "" && goquery.NodeName(card) == "a" {
				href, _ = card.Attr("href")
			}
			if title == "" || strings.TrimSpace(href) == "" {
				skipped++
				return
			}
			url := util.ResolveURL(base, href)

			loc := selText(card, sel.Location)
			if loc == "" && sel.Location == "" {
				loc = util.FindLocation(card)
			}
			if loc == "" {
				loc = defaultLoc
			}

			seen[url] = true
			out = append(out, domain.RawRecord{
				domain.FieldTitle:    title,
				domain.FieldCompany:  selText(card, sel.Company),
				domain.FieldLocation: loc,
				domain.FieldURL:      url,
				domain.FieldPosted:   firstNonEmptyAttr(card, sel.Posted),
				domain.FieldSalary:   selText(card, sel.Salary),
				domain.FieldSnippet:  selText(card, sel.Snippet),
			})
		})
	}

	if linkPat != nil {
		doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if href == "" || !linkPat.MatchString(href) || util.IsJunkURL(href) {
				return
			}
			url := util.ResolveURL(base, href)
			if seen[url] {
				return
			}
			seen[url] = true
			title := util.CleanText(a.Text())
			if title == "" {
				title = util.CleanText(a.AttrOr("title", ""))
			}
			if title == "" {
				title = "Job posting"
			}
			out = append(out, domain.RawRecord{
				domain.FieldTitle:    title,
				domain.FieldURL:      url,
				domain.FieldLocation: defaultLoc,
			})
		})
	}

	return out, skipped
}

func selText(node *goquery.Selection, sel string) string {
	if sel == "" {
		return ""
	}
	return util.CleanText(node.Find(sel).First().Text())
}

func selAttr(node *goquery.Selection, sel, attr string) string {
	if sel == "" {
		return ""
	}
	return strings.TrimSpace(node.Find(sel).First().AttrOr(attr, ""))
}

// firstNonEmptyAttr prefers a machine-readable datetime attribute over the
// element text, e.g. <time datetime="2024-05-01">1.5.</time>.
func firstNonEmptyAttr(node *goquery.Selection, sel string) string {
	if sel == "" {
		return ""
	}
	el := node.Find(sel).First()
	if v := strings.TrimSpace(el.AttrOr("datetime", "")); v != "" {
		return v
	}
	return util.CleanText(el.Text())
}

func findNextURL(doc *goquery.Document, sel domain.Selectors, base string) string {
	if sel.NextSelector != "" {
		if href := strings.TrimSpace(doc.Find(sel.NextSelector).First().AttrOr("href", "")); href != "" {
			return util.ResolveURL(base, href)
		}
	}
	if href := strings.TrimSpace(doc.Find(`a[rel="next"]`).First().AttrOr("href", "")); href != "" {
		return util.ResolveURL(base, href)
	}

	var next string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if nextLinkTexts.MatchString(a.Text()) {
			next = util.ResolveURL(base, a.AttrOr("href", ""))
			return false
		}
		return true
	})
	return next
}
