package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"HTTPS://Example.COM/jobs/1/?utm_source=x&b=2&a=1#apply", "https://example.com/jobs/1?a=1&b=2"},
		{"https://example.com/jobs/1?gclid=abc&fbclid=d", "https://example.com/jobs/1"},
		{"https://www.linkedin.com/jobs/view/?currentJobId=42&trk=foo&x=1", "https://www.linkedin.com/jobs/view?currentJobId=42"},
		{"https://example.com/", "https://example.com/"},
		{"  ", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanonicalizeURL(c.in), "input %q", c.in)
	}
}

func TestCanonicalizeURLIsIdempotent(t *testing.T) {
	u := "https://Example.com/a/b/?utm_medium=mail&q=warehouse#x"
	once := CanonicalizeURL(u)
	assert.Equal(t, once, CanonicalizeURL(once))
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://jobs.example.fi/job/7", ResolveURL("https://jobs.example.fi/search?page=2", "/job/7"))
	assert.Equal(t, "https://jobs.example.fi/search/job/7", ResolveURL("https://jobs.example.fi/search/", "job/7"))
	assert.Equal(t, "https://other.fi/x", ResolveURL("https://jobs.example.fi/", "https://other.fi/x"))
	assert.Equal(t, "/job/7", ResolveURL("", "/job/7"))
	assert.Equal(t, "", ResolveURL("https://jobs.example.fi/", " "))
}

func TestIsAbsoluteHTTP(t *testing.T) {
	assert.True(t, IsAbsoluteHTTP("https://example.com/x"))
	assert.True(t, IsAbsoluteHTTP("http://example.com"))
	assert.False(t, IsAbsoluteHTTP("/relative"))
	assert.False(t, IsAbsoluteHTTP("mailto:jobs@example.com"))
	assert.False(t, IsAbsoluteHTTP(""))
}

func TestIsJunkURL(t *testing.T) {
	assert.True(t, IsJunkURL("https://example.com/privacy-policy"))
	assert.True(t, IsJunkURL("/settings/alerts"))
	assert.False(t, IsJunkURL("https://example.com/jobs/123-warehouse-worker"))
}
