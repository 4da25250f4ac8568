package transport

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"skybound/internal/cache"
	"skybound/internal/domain"
	"skybound/internal/middleware"
	"skybound/internal/repository"
	"skybound/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoginRequest represents the admin login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued access token
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// BulkRequest applies one action to many rows
type BulkRequest struct {
	Action string      `json:"action" validate:"required"`
	IDs    []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// BulkResponse reports how many rows changed
type BulkResponse struct {
	Updated int `json:"updated"`
}

// ProductRequest is the editable part of a product. On update the body is
// decoded over the stored values, so omitted fields keep their value.
type ProductRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	ShortDescription string     `json:"short_description"`
	CategoryID       *uuid.UUID `json:"category_id"`
	Price            *float64   `json:"price"`
	DurationHours    *int       `json:"duration_hours"`
	Difficulty       string     `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced expert"`
	ButtonText       string     `json:"button_text"`
	ButtonLink       string     `json:"button_link"`
	ImageURL         string     `json:"image_url"`
	Slug             string     `json:"slug"`
	IsActive         bool       `json:"is_active"`
	IsFeatured       bool       `json:"is_featured"`
	SortOrder        int        `json:"sort_order"`
	MetaTitle        string     `json:"meta_title"`
	MetaDescription  string     `json:"meta_description"`
	Keywords         string     `json:"keywords"`
}

func productRequestFrom(p *domain.Product) ProductRequest {
	return ProductRequest{
		Title:            p.Title,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		CategoryID:       clonePtr(p.CategoryID),
		Price:            clonePtr(p.Price),
		DurationHours:    clonePtr(p.DurationHours),
		Difficulty:       string(p.Difficulty),
		ButtonText:       p.ButtonText,
		ButtonLink:       p.ButtonLink,
		ImageURL:         p.ImageURL,
		Slug:             p.Slug,
		IsActive:         p.IsActive,
		IsFeatured:       p.IsFeatured,
		SortOrder:        p.SortOrder,
		MetaTitle:        p.MetaTitle,
		MetaDescription:  p.MetaDescription,
		Keywords:         p.Keywords,
	}
}

// clonePtr copies *v so decoding into the request never writes through to
// the stored product.
func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func (req ProductRequest) applyTo(p *domain.Product) {
	if req.CategoryID == nil || p.Category == nil || p.Category.ID != *req.CategoryID {
		p.Category = nil
	}
	p.Title = req.Title
	p.Description = req.Description
	p.ShortDescription = req.ShortDescription
	p.CategoryID = req.CategoryID
	p.Price = req.Price
	p.DurationHours = req.DurationHours
	p.Difficulty = domain.Difficulty(req.Difficulty)
	p.ButtonText = req.ButtonText
	p.ButtonLink = req.ButtonLink
	p.ImageURL = req.ImageURL
	p.Slug = req.Slug
	p.IsActive = req.IsActive
	p.IsFeatured = req.IsFeatured
	p.SortOrder = req.SortOrder
	p.MetaTitle = req.MetaTitle
	p.MetaDescription = req.MetaDescription
	p.Keywords = req.Keywords
}

// CategoryRequest is the editable part of a category
type CategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// AdminHandler serves the back-office JSON API
type AdminHandler struct {
	admins        service.AdminService
	products      service.ProductService
	categories    service.CategoryService
	subscriptions service.SubscriptionService
	cache         *cache.PageCache
	logger        *zap.Logger
}

// NewAdminHandler creates a new AdminHandler. pageCache may be nil.
func NewAdminHandler(
	admins service.AdminService,
	products service.ProductService,
	categories service.CategoryService,
	subscriptions service.SubscriptionService,
	pageCache *cache.PageCache,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		admins:        admins,
		products:      products,
		categories:    categories,
		subscriptions: subscriptions,
		cache:         pageCache,
		logger:        logger,
	}
}

// RegisterRoutes registers all admin routes
func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		// Public routes
		r.Post("/login", h.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireAdmin(h.logger))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.ListProducts)
				r.Post("/", h.CreateProduct)
				r.Post("/bulk", h.BulkProducts)
				r.Get("/{id}", h.GetProduct)
				r.Put("/{id}", h.UpdateProduct)
				r.Delete("/{id}", h.DeleteProduct)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.ListCategories)
				r.Post("/", h.CreateCategory)
				r.Post("/bulk", h.BulkCategories)
				r.Get("/{id}", h.GetCategory)
				r.Put("/{id}", h.UpdateCategory)
				r.Delete("/{id}", h.DeleteCategory)
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", h.ListSubscriptions)
				r.Post("/bulk", h.BulkSubscriptions)
				r.Delete("/{id}", h.DeleteSubscription)
			})
		})
	})
}

// Login handles admin authentication
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, expiresAt, err := h.admins.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Debug("Admin login rejected")
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("Admin login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	})
}

// ListProducts handles GET /api/admin/products
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	active, err := optionalBool(q.Get("active"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "active must be a boolean")
		return
	}
	featured, err := optionalBool(q.Get("featured"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "featured must be a boolean")
		return
	}

	products, err := h.products.List(r.Context(), repository.ProductFilter{
		Active:       active,
		Featured:     featured,
		CategorySlug: q.Get("category"),
		Query:        q.Get("q"),
	})
	if err != nil {
		h.respondServiceError(w, err, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /api/admin/products/{id}
func (h *AdminHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, p)
}

// CreateProduct handles POST /api/admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p := domain.NewProduct()
	req := productRequestFrom(p)
	if !h.decode(w, r, &req) {
		return
	}
	req.applyTo(p)

	saved, err := h.products.Save(r.Context(), p)
	if err != nil {
		h.respondServiceError(w, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", saved.ID.String()), zap.String("slug", saved.Slug))
	h.cache.InvalidateAll(r.Context())
	middleware.RespondWithJSON(w, http.StatusCreated, saved)
}

// UpdateProduct handles PUT /api/admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "failed to get product")
		return
	}

	req := productRequestFrom(p)
	if !h.decode(w, r, &req) {
		return
	}
	// Slugs are stable once assigned.
	if req.Slug == "" {
		req.Slug = p.Slug
	}
	req.applyTo(p)

	saved, err := h.products.Save(r.Context(), p)
	if err != nil {
		h.respondServiceError(w, err, "failed to update product")
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", saved.ID.String()))
	h.cache.InvalidateAll(r.Context())
	middleware.RespondWithJSON(w, http.StatusOK, saved)
}

// DeleteProduct handles DELETE /api/admin/products/{id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	h.cache.InvalidateAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// BulkProducts handles POST /api/admin/products/bulk
func (h *AdminHandler) BulkProducts(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "products", h.products.BulkAction)
}

// ListCategories handles GET /api/admin/categories
func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// GetCategory handles GET /api/admin/categories/{id}
func (h *AdminHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	c, err := h.categories.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "failed to get category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, c)
}

// CreateCategory handles POST /api/admin/categories
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	req := CategoryRequest{IsActive: true}
	if !h.decode(w, r, &req) {
		return
	}

	c := domain.NewProductCategory()
	c.Name = req.Name
	c.Slug = req.Slug
	c.Description = req.Description
	c.IsActive = req.IsActive

	saved, err := h.categories.Save(r.Context(), c)
	if err != nil {
		h.respondServiceError(w, err, "failed to create category")
		return
	}

	h.logger.Info("Category created", zap.String("category_id", saved.ID.String()), zap.String("slug", saved.Slug))
	h.cache.InvalidateAll(r.Context())
	middleware.RespondWithJSON(w, http.StatusCreated, saved)
}

// UpdateCategory handles PUT /api/admin/categories/{id}
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	c, err := h.categories.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "failed to get category")
		return
	}

	req := CategoryRequest{
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		IsActive:    c.IsActive,
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Slug == "" {
		req.Slug = c.Slug
	}

	c.Name = req.Name
	c.Slug = req.Slug
	c.Description = req.Description
	c.IsActive = req.IsActive

	saved, err := h.categories.Save(r.Context(), c)
	if err != nil {
		h.respondServiceError(w, err, "failed to update category")
		return
	}

	h.logger.Info("Category updated", zap.String("category_id", saved.ID.String()))
	h.cache.InvalidateAll(r.Context())
	middleware.RespondWithJSON(w, http.StatusOK, saved)
}

// DeleteCategory handles DELETE /api/admin/categories/{id}. Products in the
// category are kept with their category cleared.
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err, "failed to delete category")
		return
	}

	h.logger.Info("Category deleted", zap.String("category_id", id.String()))
	h.cache.InvalidateAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// BulkCategories handles POST /api/admin/categories/bulk
func (h *AdminHandler) BulkCategories(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "categories", h.categories.BulkAction)
}

// ListSubscriptions handles GET /api/admin/subscriptions
func (h *AdminHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	active, err := optionalBool(q.Get("active"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "active must be a boolean")
		return
	}

	filter := repository.SubscriptionFilter{
		Active: active,
		Source: q.Get("source"),
		Query:  q.Get("q"),
	}

	if raw := q.Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			middleware.RespondWithError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		filter.Days = &days
	}

	subs, err := h.subscriptions.List(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, err, "failed to list subscriptions")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, subs)
}

// BulkSubscriptions handles POST /api/admin/subscriptions/bulk
func (h *AdminHandler) BulkSubscriptions(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "subscriptions", h.subscriptions.BulkAction)
}

// DeleteSubscription handles DELETE /api/admin/subscriptions/{id}
func (h *AdminHandler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.subscriptions.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err, "failed to delete subscription")
		return
	}

	h.logger.Info("Subscription deleted", zap.String("subscription_id", id.String()))
	h.cache.InvalidateAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

type bulkFunc func(ctx context.Context, action string, ids []uuid.UUID) (int, error)

func (h *AdminHandler) bulk(w http.ResponseWriter, r *http.Request, entity string, apply bulkFunc) {
	var req BulkRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := apply(r.Context(), req.Action, req.IDs)
	if err != nil {
		h.respondServiceError(w, err, "failed to update "+entity)
		return
	}

	h.logger.Info("Bulk action applied",
		zap.String("entity", entity),
		zap.String("action", req.Action),
		zap.Int("updated", updated),
	)
	h.cache.InvalidateAll(r.Context())
	middleware.RespondWithJSON(w, http.StatusOK, BulkResponse{Updated: updated})
}

// decode writes the 400 response itself and reports whether to continue.
func (h *AdminHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := middleware.DecodeAndValidate(w, r, v); err != nil {
		h.logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

		if fields := middleware.FormatValidationErrors(err); len(fields) > 0 {
			middleware.RespondWithValidationErrors(w, fields)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *AdminHandler) respondServiceError(w http.ResponseWriter, err error, message string) {
	if ve, ok := domain.AsValidationError(err); ok {
		middleware.RespondWithValidationErrors(w, ve.Fields)
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrUnknownAction):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(message, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, message)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func optionalBool(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
