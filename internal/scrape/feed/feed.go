package feed

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"strings"
	"time"

	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/scrape/types"
	"jobagg-engine/internal/scrape/util"

	"github.com/mmcdole/gofeed"
)

// Scraper reads RSS, Atom or JSON Feed job feeds.
type Scraper struct {
	client *util.Client
	parser *gofeed.Parser
}

func New(client *util.Client) *Scraper {
	return &Scraper{
		client: client,
		parser: gofeed.NewParser(),
	}
}

func (s *Scraper) Name() string { return "feed" }

func (s *Scraper) Fields() domain.FieldMap {
	return domain.FieldMap{
		domain.FieldTitle:    "title",
		domain.FieldURL:      "link",
		domain.FieldSnippet:  "description",
		domain.FieldPosted:   "published",
		domain.FieldCompany:  "author",
		domain.FieldLocation: "location",
	}
}

func (s *Scraper) Fetch(ctx context.Context, site domain.SiteSpec, limit int) (types.FetchResult, error) {
	var res types.FetchResult

	pages := site.StartPages()
	if len(pages) == 0 {
		return res, types.Unavailable(site.ID, fmt.Errorf("no feed url configured"))
	}

	var firstErr error
	ok := 0
	for _, page := range pages {
		if len(res.Records) >= limit {
			break
		}
		body, err := s.client.Get(ctx, page.URL, "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8")
		if err != nil {
			firstErr = cmp.Or(firstErr, err)
			continue
		}
		f, err := s.parser.Parse(bytes.NewReader(body))
		if err != nil {
			firstErr = cmp.Or(firstErr, fmt.Errorf("parse feed %s: %w", page.URL, err))
			continue
		}
		ok++

		for _, item := range f.Items {
			if len(res.Records) >= limit {
				break
			}
			if item == nil || strings.TrimSpace(item.Title) == "" {
				res.Skipped++
				continue
			}
			res.Records = append(res.Records, record(item, page.DefaultLocation))
		}
	}

	if ok == 0 && firstErr != nil {
		return types.FetchResult{}, types.Unavailable(site.ID, firstErr)
	}
	if err := ctx.Err(); err != nil {
		return types.FetchResult{}, types.Unavailable(site.ID, err)
	}
	return res, nil
}

func record(item *gofeed.Item, defaultLoc string) domain.RawRecord {
	r := domain.RawRecord{}
	// unknown elements such as <location> or <company> come through Custom
	for k, v := range item.Custom {
		r[k] = v
	}
	r["title"] = item.Title
	r["link"] = cmp.Or(item.Link, item.GUID)
	r["description"] = cmp.Or(item.Description, item.Content)
	r["categories"] = strings.Join(item.Categories, ", ")

	switch {
	case item.PublishedParsed != nil:
		r["published"] = item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		r["published"] = item.UpdatedParsed.UTC().Format(time.RFC3339)
	default:
		r["published"] = item.Published
	}

	if item.Author != nil && r["author"] == "" {
		r["author"] = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil && r["author"] == "" {
		r["author"] = item.Authors[0].Name
	}
	if r["location"] == "" {
		r["location"] = defaultLoc
	}
	return r
}
