package livepress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eringen/livepress/content"
)

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func setupTestApp(t *testing.T) *App {
	t.Helper()
	a := New(SiteConfig{
		Name:          "Test Blog",
		URL:           "https://example.com",
		DatabasePath:  filepath.Join(t.TempDir(), "data", "blog.db"),
		AdminPassword: "secret",
		SessionSecret: "test-session-secret",
		LogLevel:      "off",
	}, WithStaticDir(t.TempDir()))
	if err := a.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

// seedScenario stores featured "a" and "b".."h", created newest first.
func seedScenario(t *testing.T, s *content.Store) {
	t.Helper()
	for i, slug := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		rec := content.Record{
			Title:     "Post " + slug,
			Slug:      slug,
			Excerpt:   "excerpt " + slug,
			Date:      "2024-01-15",
			Featured:  slug == "a",
			CreatedAt: baseTime.Add(-time.Duration(i) * time.Minute),
		}
		if _, err := s.Save(context.Background(), &rec); err != nil {
			t.Fatalf("Save(%s) failed: %v", slug, err)
		}
	}
}

func serve(a *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func get(a *App, target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return serve(a, req)
}

type failingLoader struct{ err error }

func (f failingLoader) LoadContentView(context.Context) (content.View, error) {
	return content.View{}, &content.FetchFailure{Query: "featured", Err: f.err}
}

func (f failingLoader) LoadRecord(_ context.Context, slug string) (content.Record, error) {
	return content.Record{}, &content.FetchFailure{Query: "record", Err: f.err}
}

type failingSearcher struct{}

func (failingSearcher) Search(_ context.Context, q string) ([]content.SearchHit, error) {
	return nil, &content.SearchFailure{Query: q, Err: errors.New("connection refused")}
}

func TestHomeScenario(t *testing.T) {
	a := setupTestApp(t)
	seedScenario(t, a.Store)

	rec := get(a, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Featured Story") || !strings.Contains(body, `href="/blog/a/"`) {
		t.Error("featured record a not rendered")
	}
	if n := strings.Count(body, `<article class="card">`); n != 6 {
		t.Errorf("rendered %d cards, want 6", n)
	}
	if strings.Contains(body, `href="/blog/h/"`) {
		t.Error("h should be hidden behind View All")
	}
	if !strings.Contains(body, "data-view-all") {
		t.Error("View All missing")
	}

	rec = get(a, "/?all=1")
	body = rec.Body.String()
	if n := strings.Count(body, `<article class="card">`); n != 7 {
		t.Errorf("expanded: rendered %d cards, want 7", n)
	}
	if strings.Contains(body, "data-view-all") {
		t.Error("View All shown on the expanded page")
	}
}

func TestHomeEmpty(t *testing.T) {
	a := setupTestApp(t)
	rec := get(a, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No posts available.") {
		t.Errorf("GET / on empty store = %d, body lacks empty message", rec.Code)
	}
}

func TestHomePartial(t *testing.T) {
	a := setupTestApp(t)
	seedScenario(t, a.Store)

	rec := get(a, "/?partial=content", "HX-Request", "true")
	body := strings.TrimSpace(rec.Body.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("partial = %d", rec.Code)
	}
	if !strings.HasPrefix(body, `<main id="content"`) {
		t.Errorf("partial should be the content section, got %.60q", body)
	}
	if strings.Contains(body, "<html") {
		t.Error("partial rendered the full layout")
	}
}

func TestHomeFetchFailure(t *testing.T) {
	a := setupTestApp(t)
	seedScenario(t, a.Store)
	a.Loader = failingLoader{err: errors.New("connection refused")}

	rec := get(a, "/")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET / = %d, want 503", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Error loading posts") {
		t.Error("notice missing")
	}
	if strings.Contains(body, "Post a") {
		t.Error("content rendered despite the failure")
	}
}

func TestPostPage(t *testing.T) {
	a := setupTestApp(t)
	seedScenario(t, a.Store)

	rec := get(a, "/blog/c/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /blog/c/ = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<h1>Post c</h1>") {
		t.Error("post title missing")
	}
}

func TestPostNotFound(t *testing.T) {
	a := setupTestApp(t)
	rec := get(a, "/blog/missing/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /blog/missing/ = %d, want 404", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Post not found") || !strings.Contains(body, "Return Home") {
		t.Error("not-found page missing")
	}
	if strings.Contains(body, "Error loading posts") {
		t.Error("not-found rendered as an error notice")
	}
}

func TestPostFetchFailure(t *testing.T) {
	a := setupTestApp(t)
	a.Loader = failingLoader{err: errors.New("connection refused")}
	rec := get(a, "/blog/a/")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("GET /blog/a/ = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Something went wrong") {
		t.Error("error page missing")
	}
}

func TestBlogRedirect(t *testing.T) {
	a := setupTestApp(t)
	rec := get(a, "/blog")
	if rec.Code != http.StatusMovedPermanently || rec.Header().Get("Location") != "/" {
		t.Errorf("GET /blog = %d -> %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestSearch(t *testing.T) {
	a := setupTestApp(t)
	seedScenario(t, a.Store)

	tests := []struct {
		q    string
		want int
	}{
		{"", 0},
		{"po", 0},
		{"post", 5},
		{"POST C", 1},
		{"nothing", 0},
	}
	for _, tt := range tests {
		rec := get(a, "/search?q="+strings.ReplaceAll(tt.q, " ", "+"))
		if rec.Code != http.StatusOK {
			t.Errorf("search %q = %d", tt.q, rec.Code)
			continue
		}
		var hits []content.SearchHit
		if err := json.Unmarshal(rec.Body.Bytes(), &hits); err != nil {
			t.Errorf("search %q: decode: %v", tt.q, err)
			continue
		}
		if hits == nil {
			t.Errorf("search %q returned null, want an array", tt.q)
		}
		if len(hits) != tt.want {
			t.Errorf("search %q returned %d hits, want %d", tt.q, len(hits), tt.want)
		}
		for _, h := range hits {
			if !strings.Contains(strings.ToLower(h.Title), strings.ToLower(tt.q)) {
				t.Errorf("search %q returned %q", tt.q, h.Title)
			}
		}
	}
}

func TestSearchPartial(t *testing.T) {
	a := setupTestApp(t)
	seedScenario(t, a.Store)

	rec := get(a, "/search?q=post+b", "HX-Request", "true")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `href="/blog/b/"`) {
		t.Errorf("search partial = %d:\n%s", rec.Code, rec.Body.String())
	}
}

func TestSearchFailure(t *testing.T) {
	a := setupTestApp(t)
	a.Searcher = failingSearcher{}

	rec := get(a, "/search?q=post")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("search = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "search unavailable") {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = get(a, "/search?q=post", "HX-Request", "true")
	if rec.Code != http.StatusBadGateway || !strings.Contains(rec.Body.String(), "Search is unavailable") {
		t.Errorf("partial search failure = %d", rec.Code)
	}
}

func TestFeeds(t *testing.T) {
	a := setupTestApp(t)
	seedScenario(t, a.Store)

	rec := get(a, "/feed.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("feed = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<rss") || !strings.Contains(body, "https://example.com/blog/a/") {
		t.Error("feed missing featured record")
	}
	if strings.Count(body, "<item>") != 8 {
		t.Errorf("feed has %d items, want 8", strings.Count(body, "<item>"))
	}

	rec = get(a, "/sitemap.xml")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<loc>https://example.com/blog/h/</loc>") {
		t.Errorf("sitemap = %d", rec.Code)
	}

	rec = get(a, "/robots.txt")
	if !strings.Contains(rec.Body.String(), "Sitemap: https://example.com/sitemap.xml") {
		t.Errorf("robots.txt = %q", rec.Body.String())
	}
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	a := setupTestApp(t)
	rec := get(a, "/nope/")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Post not found") {
		t.Errorf("GET /nope/ = %d", rec.Code)
	}
}
