package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// CORSMiddleware configures CORS for the JSON API. Development allows any
// origin; production only the configured ones.
func CORSMiddleware(allowedOrigins []string, isDevelopment bool) func(http.Handler) http.Handler {
	allowCredentials := true
	if isDevelopment {
		allowedOrigins = []string{"*"}
		allowCredentials = false
	}

	opts := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: allowCredentials,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}

	// An empty list would allow every origin; production with nothing
	// configured allows none.
	if !isDevelopment && len(allowedOrigins) == 0 {
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
	}

	return cors.Handler(opts)
}

// DefaultMiddlewareStack returns the middleware applied to every route
func DefaultMiddlewareStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.StripSlashes,
		middleware.Compress(5),
	}
}
