package render

import (
	"bytes"
	"html/template"
	"time"

	"jobagg-engine/internal/domain"

	"github.com/dustin/go-humanize"
)

type htmlGroup struct {
	Site     string
	Postings []htmlPosting
}

type htmlPosting struct {
	domain.Posting
	Posted string
	Age    string
}

type htmlPage struct {
	Generated string
	Total     int
	Keywords  []string
	Locations []string
	Groups    []htmlGroup
	Warning   string
}

// groupBySite keeps sites in order of first appearance and postings in
// their final order within a site.
func groupBySite(result domain.RunResult) []htmlGroup {
	var groups []htmlGroup
	idx := map[string]int{}
	for _, p := range result.Postings {
		i, ok := idx[p.SourceSite]
		if !ok {
			i = len(groups)
			idx[p.SourceSite] = i
			groups = append(groups, htmlGroup{Site: p.SourceSite})
		}
		hp := htmlPosting{Posting: p}
		if p.PostedAt != nil {
			hp.Posted = p.PostedAt.UTC().Format("2006-01-02")
			if !result.FinishedAt.IsZero() {
				hp.Age = humanize.RelTime(*p.PostedAt, result.FinishedAt, "ago", "from now")
			}
		}
		groups[i].Postings = append(groups[i].Postings, hp)
	}
	return groups
}

func encodeHTML(result domain.RunResult) ([]byte, error) {
	page := htmlPage{
		Total:     len(result.Postings),
		Keywords:  result.Filters.Keywords,
		Locations: result.Filters.Locations,
		Groups:    groupBySite(result),
		Warning:   result.Warning(),
	}
	if !result.FinishedAt.IsZero() {
		page.Generated = result.FinishedAt.UTC().Format(time.RFC3339)
	}

	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var htmlTmpl = template.Must(template.New("jobs").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width,initial-scale=1"/>
<title>Aggregated jobs ({{.Total}})</title>
<style>
  :root { --bg:#0b0d10; --card:#13161a; --muted:#9aa4af; --text:#e8eef5; --accent:#5fa8ff; }
  * { box-sizing: border-box; font-family: system-ui, -apple-system, Segoe UI, Roboto, Arial, sans-serif; }
  body { margin: 0; background: var(--bg); color: var(--text); }
  header { position: sticky; top: 0; background: rgba(11,13,16,0.9); padding: 16px; border-bottom: 1px solid #1f242b; }
  .wrap { max-width: 1100px; margin: 0 auto; padding: 16px; }
  h1 { margin: 0 0 12px; font-size: 22px; }
  h2 { font-size: 16px; color: var(--muted); margin: 18px 0 8px; }
  input { width: 100%; padding: 10px 12px; background: #0f1216; color: var(--text); border: 1px solid #232a32; border-radius: 10px; }
  .card { background: var(--card); border: 1px solid #1f242b; border-radius: 14px; padding: 14px; margin-bottom: 10px; }
  .title { color: var(--text); text-decoration: none; font-weight: 650; }
  .title:hover { color: var(--accent); }
  .meta { margin-top: 6px; font-size: 13px; color: var(--muted); }
  .sep { margin: 0 6px; opacity: .6; }
  .snippet { margin: 8px 0 0; color: #c9d2db; font-size: 14px; }
  .chips { display:flex; flex-wrap:wrap; gap:8px; margin-top:8px; }
  .chip { font-size:12px; padding:4px 8px; border:1px solid #26303a; border-radius:999px; color:#cbd5e1; background:#0f1216; }
  .warn { color: #f5b342; font-size: 13px; margin-top: 8px; }
  footer { color: var(--muted); text-align:center; padding: 18px; font-size: 12px; }
</style>
</head>
<body>
<header>
  <div class="wrap">
    <h1>Aggregated jobs</h1>
    <input id="q" placeholder="Filter by title, company, location..."/>
    <div class="chips">
      {{- if .Keywords}}<span class="chip">Keywords:</span>{{range .Keywords}}<span class="chip">{{.}}</span>{{end}}{{end}}
      {{- if .Locations}}<span class="chip">Locations:</span>{{range .Locations}}<span class="chip">{{.}}</span>{{end}}{{end}}
    </div>
    {{- if .Warning}}
    <div class="warn">{{.Warning}}</div>
    {{- end}}
  </div>
</header>
<main class="wrap" id="list">
{{- range .Groups}}
  <section class="site" data-site="{{.Site}}">
    <h2>{{.Site}} ({{len .Postings}})</h2>
    {{- range .Postings}}
    <article class="card" data-text="{{.Title}} {{.Company}} {{.LocationText}}">
      {{- if .URL}}
      <a class="title" href="{{.URL}}" target="_blank" rel="noopener">{{.Title}}</a>
      {{- else}}
      <span class="title">{{.Title}}</span>
      {{- end}}
      <div class="meta"><span class="company">{{.Company}}</span><span class="sep">&bull;</span><span class="location">{{.LocationText}}</span>
        {{- if .Posted}}<span class="sep">&bull;</span><time datetime="{{.Posted}}" title="{{.Posted}}">{{if .Age}}{{.Age}}{{else}}{{.Posted}}{{end}}</time>{{end}}
        {{- if .Salary}}<span class="sep">&bull;</span><span class="salary">{{.Salary}}</span>{{end}}</div>
      {{- if .Snippet}}
      <p class="snippet">{{.Snippet}}</p>
      {{- end}}
    </article>
    {{- end}}
  </section>
{{- else}}
  <p>No matching postings.</p>
{{- end}}
</main>
<footer>{{.Total}} postings{{if .Generated}} &middot; generated {{.Generated}}{{end}}</footer>
<script>
(function(){
  var q = document.getElementById('q');
  var cards = Array.prototype.slice.call(document.querySelectorAll('.card'));
  q.addEventListener('input', function(){
    var term = q.value.trim().toLowerCase();
    cards.forEach(function(c){
      c.style.display = !term || c.dataset.text.toLowerCase().indexOf(term) >= 0 ? '' : 'none';
    });
  });
})();
</script>
</body>
</html>
`))
