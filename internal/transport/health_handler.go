package transport

import (
	"context"
	"net/http"
	"time"

	"skybound/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HealthHandler reports whether the store is reachable
type HealthHandler struct {
	db     Pinger
	logger *zap.Logger
	now    func() time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger, now: time.Now}
}

// RegisterRoutes registers the health endpoint
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.Health)
}

// Health handles GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error("Health check failed", zap.Error(err))
		middleware.RespondWithJSON(w, http.StatusInternalServerError, HealthResponse{
			Status: "unhealthy",
			Error:  "database unavailable",
		})
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}
