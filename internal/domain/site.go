package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Canonical field names used as keys of a FieldMap.
const (
	FieldTitle    = "title"
	FieldCompany  = "company"
	FieldLocation = "location"
	FieldURL      = "url"
	FieldSnippet  = "snippet"
	FieldPosted   = "posted"
	FieldSalary   = "salary"
)

// FieldMap maps a canonical field name to the raw record key that holds it.
type FieldMap map[string]string

// Merge returns m layered over defaults; keys set in m win.
func (m FieldMap) Merge(defaults FieldMap) FieldMap {
	out := make(FieldMap, len(defaults)+len(m))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range m {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out
}

// Key returns the raw key for a canonical field, defaulting to the field name.
func (m FieldMap) Key(field string) string {
	if k := strings.TrimSpace(m[field]); k != "" {
		return k
	}
	return field
}

// Selectors are the CSS hints used by the html adapter.
type Selectors struct {
	Container    string `yaml:"container"`
	Title        string `yaml:"title"`
	Company      string `yaml:"company"`
	Location     string `yaml:"location"`
	Link         string `yaml:"link"`
	Posted       string `yaml:"posted"`
	Salary       string `yaml:"salary"`
	Snippet      string `yaml:"snippet"`
	Base         string `yaml:"base"`
	LinkPattern  string `yaml:"link_pattern"`
	NextSelector string `yaml:"next_selector"`
}

func (s Selectors) IsZero() bool { return s == Selectors{} }

// Page is one start URL of a site, optionally with its own default location.
type Page struct {
	URL             string `yaml:"url"`
	DefaultLocation string `yaml:"default_location"`
}

// UnmarshalYAML accepts either a bare URL string or a {url, default_location} map.
func (p *Page) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		p.URL = strings.TrimSpace(value.Value)
		return nil
	}
	type plain Page
	var tmp plain
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*p = Page(tmp)
	return nil
}

// Duration decodes "800ms"/"45s" strings as well as bare numbers of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	s := strings.TrimSpace(value.Value)
	if s == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

func (d Duration) Std() time.Duration { return time.Duration(d) }

// SiteSpec configures one listing source for the duration of a run.
type SiteSpec struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"`

	// Fetch descriptor. Which fields matter depends on Kind.
	URL      string   `yaml:"url"`
	URLs     []string `yaml:"urls"`
	Pages    []Page   `yaml:"pages"`
	Board    string   `yaml:"board"`
	Endpoint string   `yaml:"endpoint"`
	Company  string   `yaml:"company"`

	DefaultLocation string `yaml:"default_location"`

	// LocationScoped means the source already filters by location, so a
	// posting without location text is not rejected.
	LocationScoped bool `yaml:"location_scoped"`

	Selectors Selectors `yaml:"selectors"`
	Fields    FieldMap  `yaml:"fields"`

	MaxPages int      `yaml:"max_pages"`
	Delay    Duration `yaml:"delay"`
	Timeout  Duration `yaml:"timeout"`
}

// StartPages lists the entry points of the site: pages, then urls, then url.
func (s SiteSpec) StartPages() []Page {
	var out []Page
	switch {
	case len(s.Pages) > 0:
		for _, p := range s.Pages {
			if p.DefaultLocation == "" {
				p.DefaultLocation = s.DefaultLocation
			}
			out = append(out, p)
		}
	case len(s.URLs) > 0:
		for _, u := range s.URLs {
			out = append(out, Page{URL: u, DefaultLocation: s.DefaultLocation})
		}
	case s.URL != "":
		out = append(out, Page{URL: s.URL, DefaultLocation: s.DefaultLocation})
	}
	return out
}

// BaseURL is the URL relative links of this site resolve against.
func (s SiteSpec) BaseURL() string {
	if s.Selectors.Base != "" {
		return s.Selectors.Base
	}
	if pages := s.StartPages(); len(pages) > 0 {
		return pages[0].URL
	}
	return s.Endpoint
}

// SiteList is an ordered list of sites. It decodes from a YAML sequence of
// site objects or from a name -> site mapping, keeping document order.
type SiteList []SiteSpec

func (l *SiteList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var sites []SiteSpec
		if err := value.Decode(&sites); err != nil {
			return err
		}
		*l = sites
		return nil
	case yaml.MappingNode:
		out := make([]SiteSpec, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			name, body := value.Content[i], value.Content[i+1]
			var site SiteSpec
			if err := body.Decode(&site); err != nil {
				return fmt.Errorf("site %q: %w", name.Value, err)
			}
			if site.ID == "" {
				site.ID = name.Value
			}
			if site.Selectors.IsZero() {
				// selectors written inline next to the url
				if err := body.Decode(&site.Selectors); err != nil {
					return fmt.Errorf("site %q selectors: %w", name.Value, err)
				}
			}
			out = append(out, site)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("sites: expected a list or a mapping, got %s", value.Tag)
	}
}

// Site adapter variants.
const (
	KindHTML       = "html"
	KindFeed       = "feed"
	KindLever      = "lever"
	KindGreenhouse = "greenhouse"
	KindWorkday    = "workday"
)

var SiteKinds = []string{KindHTML, KindFeed, KindLever, KindGreenhouse, KindWorkday}

// EffectiveKind treats an empty kind as html, the shape of older
// selector-only site files.
func (s SiteSpec) EffectiveKind() string {
	k := strings.ToLower(strings.TrimSpace(s.Kind))
	if k == "" {
		return KindHTML
	}
	return k
}
