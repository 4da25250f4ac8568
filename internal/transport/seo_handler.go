package transport

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"skybound/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	sitemapNamespace   = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapDateFormat  = "2006-01-02"
	changeFreqWeekly   = "weekly"
	staticPagePriority = 0.8
	featuredPriority   = 1.0
	productPriority    = 0.7
)

// sitemapStaticPaths are listed in every sitemap.
var sitemapStaticPaths = []string{"/", "/about", "/programs", "/pricing", "/contact"}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// SEOHandler serves sitemap.xml and robots.txt
type SEOHandler struct {
	catalog service.CatalogService
	baseURL string
	logger  *zap.Logger
	now     func() time.Time
}

// NewSEOHandler creates a new SEOHandler. Sitemap URLs always use https.
func NewSEOHandler(catalog service.CatalogService, baseURL string, logger *zap.Logger) *SEOHandler {
	return &SEOHandler{
		catalog: catalog,
		baseURL: httpsBaseURL(baseURL),
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterRoutes registers the SEO endpoints
func (h *SEOHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sitemap.xml", h.Sitemap)
	r.Get("/robots.txt", h.Robots)
}

// Sitemap lists the static pages and every active product. When products
// cannot be loaded only the static pages are listed.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	today := h.now().UTC().Format(sitemapDateFormat)

	set := urlSet{Xmlns: sitemapNamespace}
	for _, path := range sitemapStaticPaths {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.baseURL + path,
			LastMod:    today,
			ChangeFreq: changeFreqWeekly,
			Priority:   formatPriority(staticPagePriority),
		})
	}

	products, err := h.catalog.ActiveProducts(r.Context())
	if err != nil {
		h.logger.Error("Failed to load products for sitemap", zap.Error(err))
	}
	for _, p := range products {
		priority := productPriority
		if p.IsFeatured {
			priority = featuredPriority
		}
		entry := sitemapURL{
			Loc:        h.baseURL + p.URL(),
			ChangeFreq: changeFreqWeekly,
			Priority:   formatPriority(priority),
		}
		if !p.UpdatedAt.IsZero() {
			entry.LastMod = p.UpdatedAt.UTC().Format(sitemapDateFormat)
		}
		set.URLs = append(set.URLs, entry)
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		h.logger.Error("Failed to encode sitemap", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	w.Write(out)
}

// Robots allows every crawler except on the admin API.
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "User-agent: *\nAllow: /\nDisallow: /api/admin/\n\nSitemap: %s/sitemap.xml\n", h.baseURL)
}

func formatPriority(p float64) string {
	return fmt.Sprintf("%.1f", p)
}

func httpsBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return baseURL
	case strings.HasPrefix(baseURL, "http://"):
		return "https://" + strings.TrimPrefix(baseURL, "http://")
	default:
		return "https://" + baseURL
	}
}
