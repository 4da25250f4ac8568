package transport

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skybound/internal/cache"
	"skybound/internal/config"
	"skybound/internal/domain"
	"skybound/internal/middleware"
	"skybound/internal/render"
	"skybound/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const htmlContentType = "text/html; charset=utf-8"

// pageFunc renders one page. A non-nil error means rendering itself failed;
// query failures are handled inside and produce an empty page.
type pageFunc func(r *http.Request) (status int, body []byte, err error)

// SiteHandler serves the public HTML pages
type SiteHandler struct {
	catalog  service.CatalogService
	renderer *render.Renderer
	cache    *cache.PageCache
	profile  config.Profile
	brand    string
	logger   *zap.Logger
}

// NewSiteHandler creates a new SiteHandler. pageCache may be nil.
func NewSiteHandler(catalog service.CatalogService, renderer *render.Renderer, pageCache *cache.PageCache, profile config.Profile, brand string, logger *zap.Logger) *SiteHandler {
	return &SiteHandler{
		catalog:  catalog,
		renderer: renderer,
		cache:    pageCache,
		profile:  profile,
		brand:    brand,
		logger:   logger,
	}
}

// RegisterRoutes registers the public pages
func (h *SiteHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.serve(h.profile.HomeTTL, h.home))
	r.Get("/about", h.serve(h.profile.StaticTTL, h.static(render.PageAbout, "О нас", "/about")))
	r.Get("/programs", h.serve(h.profile.StaticTTL, h.programs))
	r.Get("/pricing", h.serve(h.profile.StaticTTL, h.pricing))
	r.Get("/contact", h.serve(h.profile.StaticTTL, h.static(render.PageContact, "Контакты", "/contact")))
	r.Get("/special-offers", h.serve(h.profile.StaticTTL, h.static(render.PageSpecialOffers, "Спецпредложения", "/special-offers")))
	r.Get("/products/{slug}", h.serve(h.profile.ProductTTL, h.product))
}

// NotFound renders the 404 page, or a JSON error under /api/.
func (h *SiteHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) {
		middleware.RespondWithError(w, http.StatusNotFound, "not found")
		return
	}

	status, body, err := h.notFound(r)
	if err != nil {
		h.logger.Error("Failed to render not found page", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	writeHTML(w, status, body)
}

func (h *SiteHandler) cacheEnabled() bool {
	return h.profile.PageCache && h.cache.Enabled()
}

// serve wraps fn with the page cache. Only 200 responses are stored.
func (h *SiteHandler) serve(ttl time.Duration, fn pageFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := pageCacheKey(r)

		if h.cacheEnabled() {
			if body, ok := h.cache.Get(r.Context(), key); ok {
				w.Header().Set("X-Cache", "HIT")
				writeHTML(w, http.StatusOK, body)
				return
			}
			w.Header().Set("X-Cache", "MISS")
		}

		status, body, err := fn(r)
		if err != nil {
			h.logger.Error("Failed to render page",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if status == http.StatusOK && h.cacheEnabled() {
			h.cache.Set(r.Context(), key, body, ttl)
		}
		writeHTML(w, status, body)
	}
}

func (h *SiteHandler) home(r *http.Request) (int, []byte, error) {
	var payload any
	page, err := h.catalog.Home(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.logger.Error("Failed to load home page data", zap.Error(err))
	} else {
		payload = page
	}

	return h.render(http.StatusOK, render.PageHome, &render.PageData{
		Description: "Парашютная школа " + h.brand + ": обучение, тандемные прыжки и программы для любого уровня.",
		Path:        "/",
		Data:        payload,
	})
}

func (h *SiteHandler) programs(r *http.Request) (int, []byte, error) {
	var payload any
	page, err := h.catalog.Programs(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.logger.Error("Failed to load programs", zap.Error(err))
	} else {
		payload = page
	}

	return h.render(http.StatusOK, render.PagePrograms, &render.PageData{
		Title: h.title("Программы"),
		Path:  "/programs",
		Data:  payload,
	})
}

func (h *SiteHandler) pricing(r *http.Request) (int, []byte, error) {
	var payload any
	products, err := h.catalog.Pricing(r.Context())
	if err != nil {
		h.logger.Error("Failed to load pricing", zap.Error(err))
	} else {
		payload = products
	}

	return h.render(http.StatusOK, render.PagePricing, &render.PageData{
		Title: h.title("Цены"),
		Path:  "/pricing",
		Data:  payload,
	})
}

func (h *SiteHandler) product(r *http.Request) (int, []byte, error) {
	slug := chi.URLParam(r, "slug")

	page, err := h.catalog.Product(r.Context(), slug)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.Error("Failed to load product", zap.String("slug", slug), zap.Error(err))
		}
		return h.notFound(r)
	}

	p := page.Product
	return h.render(http.StatusOK, render.PageProduct, &render.PageData{
		Title:       p.MetaTitle,
		Description: p.MetaDescription,
		Keywords:    p.Keywords,
		Path:        p.URL(),
		Data:        page,
	})
}

func (h *SiteHandler) static(page, name, path string) pageFunc {
	return func(r *http.Request) (int, []byte, error) {
		return h.render(http.StatusOK, page, &render.PageData{
			Title: h.title(name),
			Path:  path,
		})
	}
}

func (h *SiteHandler) notFound(r *http.Request) (int, []byte, error) {
	return h.render(http.StatusNotFound, render.PageNotFound, &render.PageData{
		Title: h.title("Страница не найдена"),
	})
}

func (h *SiteHandler) render(status int, page string, data *render.PageData) (int, []byte, error) {
	body, err := h.renderer.Render(page, data)
	if err != nil {
		return 0, nil, err
	}
	return status, body, nil
}

func (h *SiteHandler) title(name string) string {
	return fmt.Sprintf("%s — %s", name, h.brand)
}

// pageCacheKey identifies a rendered page. Trailing slashes are dropped to
// match the router's slash stripping, and category is the only query
// parameter any page reads.
func pageCacheKey(r *http.Request) string {
	path := r.URL.Path
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if category := r.URL.Query().Get("category"); category != "" {
		return path + "?category=" + url.QueryEscape(category)
	}
	return path
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", htmlContentType)
	w.WriteHeader(status)
	w.Write(body)
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
