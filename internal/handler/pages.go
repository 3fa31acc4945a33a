package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

type page struct {
	route      string
	file       string
	changeFreq string
	priority   string
}

var pages = []page{
	{route: "/", file: "view.html", changeFreq: "daily", priority: "1.0"},
	{route: "/all", file: "all.html", changeFreq: "daily", priority: "0.8"},
	{route: "/add", file: "add.html", changeFreq: "monthly", priority: "0.6"},
	{route: "/long", file: "long.html", changeFreq: "weekly", priority: "0.7"},
	{route: "/short", file: "short.html", changeFreq: "weekly", priority: "0.7"},
}

// PagesHandler serves the pre-built HTML front end from dir together with
// the generated robots.txt and sitemap.xml.
type PagesHandler struct {
	dir string
}

func NewPagesHandler(dir string) *PagesHandler {
	return &PagesHandler{dir: dir}
}

func (h *PagesHandler) RegisterRoutes(e *gin.Engine) {
	for _, p := range pages {
		e.GET(p.route, h.serveFile(p.file))
	}
	e.GET("/robots.txt", h.Robots)
	e.GET("/sitemap.xml", h.Sitemap)

	if info, err := os.Stat(h.dir); err == nil && info.IsDir() {
		e.Static("/static", h.dir)
	}
}

func (h *PagesHandler) serveFile(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := filepath.Join(h.dir, name)
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			writeError(c, http.StatusNotFound, "PAGE_NOT_FOUND", "Page not found")
			return
		}

		c.Header("Cache-Control", "public, max-age=300")
		c.File(path)
	}
}

func (h *PagesHandler) Robots(c *gin.Context) {
	body := "User-agent: *\n" +
		"Disallow: /api/\n" +
		"Allow: /\n" +
		"\n" +
		"Sitemap: " + baseURL(c) + "/sitemap.xml"
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

func (h *PagesHandler) Sitemap(c *gin.Context) {
	base := baseURL(c)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, p := range pages {
		fmt.Fprintf(&b, "  <url>\n    <loc>%s%s</loc>\n    <changefreq>%s</changefreq>\n    <priority>%s</priority>\n  </url>\n",
			base, p.route, p.changeFreq, p.priority)
	}
	b.WriteString("</urlset>")

	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(b.String()))
}

func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd == "http" || fwd == "https" {
		scheme = fwd
	}
	return scheme + "://" + c.Request.Host
}
