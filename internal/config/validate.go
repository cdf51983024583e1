package config

import (
	"fmt"
	"regexp"
	"strings"

	"jobagg-engine/internal/domain"
)

// ConfigError is fatal: it is returned before any network activity and
// lists every problem found, not just the first.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	if len(e.Problems) == 1 {
		return "configuration error: " + e.Problems[0]
	}
	return "configuration error:\n- " + strings.Join(e.Problems, "\n- ")
}

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err returns a *ConfigError for the collected errors, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return &ConfigError{Problems: append([]string(nil), v.Errors...)}
}

// RunLimits are the numeric knobs checked alongside sites and filters.
type RunLimits struct {
	CapPerSite  int
	Concurrency int
}

// ValidateRun checks the inputs of a single aggregation run.
func ValidateRun(sites []domain.SiteSpec, fc domain.FilterConfig, lim RunLimits) error {
	var v Validation
	checkRun(&v, sites, fc, lim)
	return v.Err()
}

// NormalizeAndValidate returns a copy with trimmed, de-duplicated filter
// lists, plus every error and warning found.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Filters.Keywords = trimList(out.Filters.Keywords)
	out.Filters.Locations = trimList(out.Filters.Locations)

	checkRun(&res, out.Sites, out.FilterConfig(), RunLimits{
		CapPerSite:  out.Run.CapPerSite,
		Concurrency: out.Run.Concurrency,
	})

	if out.Filters.MaxAgeDays < 0 {
		res.addErr("filters.max_age_days must be >= 0")
	}
	if out.Run.SiteTimeout < 0 {
		res.addErr("run.site_timeout must be >= 0")
	}
	if out.Run.RequestsPerSecond < 0 {
		res.addErr("run.requests_per_second must be >= 0")
	}
	switch out.Run.Sort {
	case "", "config", "recent", "score":
	default:
		res.addErr("run.sort must be one of config, recent, score (got %q)", out.Run.Sort)
	}

	if out.Run.CapPerSite > 500 {
		res.addWarn("run.cap_per_site is %d; large caps mean many paginated requests per site.", out.Run.CapPerSite)
	}
	if len(out.Filters.Locations) == 0 {
		res.addWarn("filters.locations is empty; postings from every location will be kept.")
	}
	for _, s := range out.Sites {
		if s.EffectiveKind() == domain.KindHTML && s.Selectors.Container == "" && s.Selectors.LinkPattern == "" {
			res.addWarn("site %q has neither selectors.container nor selectors.link_pattern; it will yield nothing.", s.ID)
		}
	}

	return out, res
}

func Validate(cfg Config) error {
	_, v := NormalizeAndValidate(cfg)
	return v.Err()
}

func checkRun(v *Validation, sites []domain.SiteSpec, fc domain.FilterConfig, lim RunLimits) {
	if len(sites) == 0 {
		v.addErr("site list is empty")
	}

	seen := map[string]bool{}
	for i, s := range sites {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			v.addErr("sites[%d].id is required", i)
		} else if key := strings.ToLower(id); seen[key] {
			v.addErr("duplicate site id %q", id)
		} else {
			seen[key] = true
		}
		checkSite(v, i, s)
	}

	if len(trimList(fc.Keywords)) == 0 {
		v.addErr("at least one keyword is required")
	}
	if lim.CapPerSite < 1 {
		v.addErr("cap per site must be >= 1 (got %d)", lim.CapPerSite)
	}
	if lim.Concurrency < 1 {
		v.addErr("concurrency must be >= 1 (got %d)", lim.Concurrency)
	}
}

func checkSite(v *Validation, i int, s domain.SiteSpec) {
	name := s.ID
	if name == "" {
		name = fmt.Sprintf("sites[%d]", i)
	}

	switch s.EffectiveKind() {
	case domain.KindHTML, domain.KindFeed:
		if len(s.StartPages()) == 0 {
			v.addErr("site %q: url, urls or pages is required", name)
		}
	case domain.KindLever, domain.KindGreenhouse:
		if strings.TrimSpace(s.Board) == "" && strings.TrimSpace(s.Endpoint) == "" {
			v.addErr("site %q: board or endpoint is required for kind %s", name, s.Kind)
		}
	case domain.KindWorkday:
		if strings.TrimSpace(s.URL) == "" {
			v.addErr("site %q: url is required for kind workday", name)
		}
	default:
		v.addErr("site %q: unknown kind %q (want one of %s)", name, s.Kind, strings.Join(domain.SiteKinds, ", "))
	}

	if p := s.Selectors.LinkPattern; p != "" {
		if _, err := regexp.Compile(p); err != nil {
			v.addErr("site %q: selectors.link_pattern: %v", name, err)
		}
	}
	if s.MaxPages < 0 {
		v.addErr("site %q: max_pages must be >= 0", name)
	}
	if s.Delay < 0 || s.Timeout < 0 {
		v.addErr("site %q: delay and timeout must be >= 0", name)
	}
}

func trimList(xs []string) []string {
	seen := map[string]bool{}
	var ys []string
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		key := strings.ToLower(x)
		if seen[key] {
			continue
		}
		seen[key] = true
		ys = append(ys, x)
	}
	return ys
}
