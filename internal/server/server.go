package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"skybound/internal/cache"
	"skybound/internal/config"
	custommiddleware "skybound/internal/middleware"
	"skybound/internal/render"
	"skybound/internal/repository"
	"skybound/internal/service"
	"skybound/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers into the router.
// redisClient may be nil, which disables the page cache and rate limiting.
func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) (*Server, error) {
	renderer, err := render.New(cfg.Site.BrandName, cfg.Site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// Initialize services
	catalogService := service.NewCatalogService(productRepo, categoryRepo)
	productService := service.NewProductService(productRepo, categoryRepo, cfg.Site.BrandName)
	categoryService := service.NewCategoryService(categoryRepo)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo)
	adminService := service.NewAdminService(adminRepo, cfg.JWT.Secret, time.Duration(cfg.JWT.AccessExpiry)*time.Minute)

	var pageCache *cache.PageCache
	if redisClient != nil {
		pageCache = cache.NewPageCache(redisClient, logger)
	}

	// Initialize handlers
	siteHandler := transport.NewSiteHandler(catalogService, renderer, pageCache, cfg.Profile, cfg.Site.BrandName, logger)
	subscriptionHandler := transport.NewSubscriptionHandler(subscriptionService, logger)
	healthHandler := transport.NewHealthHandler(db, logger)
	seoHandler := transport.NewSEOHandler(catalogService, cfg.Site.BaseURL, logger)
	adminHandler := transport.NewAdminHandler(adminService, productService, categoryService, subscriptionService, pageCache, logger)

	subscribeLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.SubscribePerMinute,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:subscribe",
		OnLimit:           transport.SubscribeRateLimited,
	}, logger)
	authMiddleware := custommiddleware.AuthMiddleware(service.AccessTokenValidator(adminService), logger)

	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.SecurityHeaders(cfg.Profile.SecureHeaders))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, !cfg.IsProduction()))

	// Register routes
	siteHandler.RegisterRoutes(router)
	seoHandler.RegisterRoutes(router)
	healthHandler.RegisterRoutes(router)
	subscriptionHandler.RegisterRoutes(router, subscribeLimit)
	adminHandler.RegisterRoutes(router, authMiddleware)
	router.Handle("/static/*", staticFiles(cfg.Server.StaticDir, cfg.Profile.StaticTTL, cfg.IsProduction()))
	router.NotFound(siteHandler.NotFound)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server, nil
}

// staticFiles serves dir under /static/. Production responses may be cached
// by browsers for ttl.
func staticFiles(dir string, ttl time.Duration, production bool) http.Handler {
	fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
	if !production {
		return fileServer
	}

	cacheControl := "public, max-age=" + strconv.Itoa(int(ttl.Seconds()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cacheControl)
		fileServer.ServeHTTP(w, r)
	})
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
