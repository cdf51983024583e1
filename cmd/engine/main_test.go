package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobagg-engine/internal/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const leverBoard = `[
  {"id":"a1","text":"Warehouse Associate","hostedUrl":"https://jobs.lever.co/acme/a1","categories":{"location":"Espoo"}},
  {"id":"a2","text":"Cleaner","hostedUrl":"https://jobs.lever.co/acme/a2","categories":{"location":"Helsinki"}}
]`

func writeSites(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "sites.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func outputArgs(dir string) []string {
	return []string{
		"--out-csv", filepath.Join(dir, "jobs.csv"),
		"--out-json", filepath.Join(dir, "jobs.json"),
		"--out-html", filepath.Join(dir, "jobs.html"),
		"--out-links", filepath.Join(dir, "links.txt"),
		"--out-sqlite", filepath.Join(dir, "jobs.db"),
	}
}

func TestRunEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/postings/acme" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(leverBoard))
	}))
	defer srv.Close()

	dir := t.TempDir()
	sites := writeSites(t, dir, `sites:
  - id: acme
    kind: lever
    board: acme
    endpoint: `+srv.URL+`/v0/postings/acme
  - id: gone
    kind: greenhouse
    endpoint: `+srv.URL+`/missing
`)

	var stdout, stderr bytes.Buffer
	args := append([]string{"--sites", sites, "--keywords", "warehouse", "--locations", "Espoo", "--days", "0"}, outputArgs(dir)...)
	code := run(context.Background(), args, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	links, err := os.ReadFile(filepath.Join(dir, "links.txt"))
	require.NoError(t, err)
	assert.Equal(t, "https://jobs.lever.co/acme/a1\n", string(links))

	csvData, err := os.ReadFile(filepath.Join(dir, "jobs.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csvData), "Warehouse Associate")
	assert.NotContains(t, string(csvData), "Cleaner")

	for _, name := range []string{"jobs.json", "jobs.html", "jobs.db"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	out := stdout.String()
	assert.Contains(t, out, "Saved 1 postings from 1/2 sites")
	assert.Contains(t, out, "1/2 sites unavailable")
}

func TestRunConfigErrorExitCode(t *testing.T) {
	dir := t.TempDir()
	sites := writeSites(t, dir, "sites: []\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"--sites", sites}, outputArgs(dir)...), &stdout, &stderr)
	assert.Equal(t, exitConfig, code)
	assert.Contains(t, stderr.String(), "site list is empty")
	assert.NoFileExists(t, filepath.Join(dir, "jobs.csv"))
}

func TestRunMissingSitesFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--sites", filepath.Join(t.TempDir(), "nope.yml")}, &stdout, &stderr)
	assert.Equal(t, exitConfig, code)
	assert.Contains(t, stderr.String(), "load sites")
}

func TestRunUnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitUsage, run(context.Background(), []string{"--bogus"}, &stdout, &stderr))
}

func TestRunWriteConfig(t *testing.T) {
	dir := t.TempDir()
	sites := writeSites(t, dir, `jobly:
  url: https://www.jobly.fi/tyopaikat
  container: article
  title: h2
  link: a
`)
	dest := filepath.Join(dir, "effective.yml")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--sites", sites, "--write-config", dest, "--max-per-site", "30"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "Wrote configuration with 1 sites")

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "cap_per_site: 30"))
	assert.Contains(t, string(b), "id: jobly")
}

func TestTargetsSkipEmptyDestinations(t *testing.T) {
	got := targets(Options{OutCSV: "a.csv", OutJSON: "", OutLinks: "  ", OutSQLite: "a.db"})
	assert.Equal(t, []render.Target{
		{Format: render.FormatCSV, Path: "a.csv"},
		{Format: render.FormatSQLite, Path: "a.db"},
	}, got)
}
