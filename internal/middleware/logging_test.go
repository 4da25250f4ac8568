package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddleware_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		path   string
		status int
		level  zapcore.Level
	}{
		{"/", http.StatusOK, zapcore.InfoLevel},
		{"/static/css/style.css", http.StatusOK, zapcore.DebugLevel},
		{"/products/missing", http.StatusNotFound, zapcore.WarnLevel},
		{"/api/subscribe", http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			handler := LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", tt.path, nil))

			entries := logs.FilterMessage("Request completed").All()
			if len(entries) != 1 {
				t.Fatalf("expected one log entry, got %d", len(entries))
			}
			if entries[0].Level != tt.level {
				t.Errorf("level = %s, want %s", entries[0].Level, tt.level)
			}
			if got := entries[0].ContextMap()["status"]; got != int64(tt.status) {
				t.Errorf("status field = %v, want %d", got, tt.status)
			}
		})
	}
}
