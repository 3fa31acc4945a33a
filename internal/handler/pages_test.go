package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupPagesRouter(t *testing.T, dir string) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewPagesHandler(dir).RegisterRoutes(r)
	return r
}

func TestPages_ServesFileWithCacheHeader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "view.html"), []byte("<h1>books</h1>"), 0o644); err != nil {
		t.Fatalf("failed to write page: %v", err)
	}
	router := setupPagesRouter(t, dir)

	w := doJSON(t, router, http.MethodGet, "/", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=300" {
		t.Fatalf("unexpected Cache-Control %q", got)
	}
	if !strings.Contains(w.Body.String(), "<h1>books</h1>") {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}

func TestPages_MissingFile(t *testing.T) {
	router := setupPagesRouter(t, t.TempDir())

	w := doJSON(t, router, http.MethodGet, "/add", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestRobotsAndSitemap(t *testing.T) {
	router := setupPagesRouter(t, t.TempDir())

	w := doJSON(t, router, http.MethodGet, "/robots.txt", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Disallow: /api/") || !strings.Contains(body, "Sitemap: http://example.com/sitemap.xml") {
		t.Fatalf("unexpected robots.txt:\n%s", body)
	}

	w = doJSON(t, router, http.MethodGet, "/sitemap.xml", nil)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body = w.Body.String()
	for _, p := range []string{"/all", "/add", "/long", "/short"} {
		if !strings.Contains(body, "<loc>http://example.com"+p+"</loc>") {
			t.Fatalf("sitemap is missing %s:\n%s", p, body)
		}
	}
	if strings.Count(body, "<url>") != len(pages) {
		t.Fatalf("expected %d urls in sitemap", len(pages))
	}
}
