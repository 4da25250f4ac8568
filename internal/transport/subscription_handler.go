package transport

import (
	"errors"
	"net/http"

	"skybound/internal/middleware"
	"skybound/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Messages returned by the public subscribe endpoint.
const (
	msgSubscribed        = "Спасибо за подписку!"
	msgAlreadySubscribed = "Вы уже подписаны"
	msgMalformedBody     = "Неверный формат данных"
	msgEmailRequired     = "Email обязателен"
	msgInvalidEmail      = "Неверный формат email"
	msgInternalError     = "Внутренняя ошибка сервера"
	msgTooManyRequests   = "Слишком много запросов, попробуйте позже"
)

// SubscribeRequest is the body of POST /api/subscribe
type SubscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

// SubscribeResponse is returned on success. Created is also true when an
// inactive subscription was reactivated.
type SubscribeResponse struct {
	Success bool   `json:"success"`
	Created bool   `json:"created"`
	Message string `json:"message"`
}

// SubscribeErrorResponse is returned on any failure
type SubscribeErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SubscriptionHandler handles the public newsletter signup
type SubscriptionHandler struct {
	subscriptions service.SubscriptionService
	logger        *zap.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptions service.SubscriptionService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// RegisterRoutes registers the subscribe endpoint behind rateLimit
func (h *SubscriptionHandler) RegisterRoutes(r chi.Router, rateLimit func(http.Handler) http.Handler) {
	r.With(rateLimit).Post("/api/subscribe", h.Subscribe)
}

// Subscribe handles POST /api/subscribe
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest

	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Warn("Invalid JSON in subscription request", zap.Error(err))
		respondSubscribeError(w, http.StatusBadRequest, msgMalformedBody)
		return
	}

	_, created, err := h.subscriptions.Subscribe(r.Context(), req.Email, req.Source)
	switch {
	case errors.Is(err, service.ErrEmptyEmail):
		respondSubscribeError(w, http.StatusBadRequest, msgEmailRequired)
		return
	case errors.Is(err, service.ErrInvalidEmail):
		respondSubscribeError(w, http.StatusBadRequest, msgInvalidEmail)
		return
	case err != nil:
		h.logger.Error("Subscription failed", zap.Error(err))
		respondSubscribeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	message := msgAlreadySubscribed
	if created {
		message = msgSubscribed
	}

	h.logger.Info("Subscription recorded", zap.Bool("created", created))
	middleware.RespondWithJSON(w, http.StatusOK, SubscribeResponse{
		Success: true,
		Created: created,
		Message: message,
	})
}

// SubscribeRateLimited writes the 429 body used by the subscribe rate limiter.
func SubscribeRateLimited(w http.ResponseWriter) {
	respondSubscribeError(w, http.StatusTooManyRequests, msgTooManyRequests)
}

func respondSubscribeError(w http.ResponseWriter, status int, message string) {
	middleware.RespondWithJSON(w, status, SubscribeErrorResponse{Success: false, Error: message})
}
