package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("excessive requests are blocked with 429", prop.ForAll(
		func(requestsPerWindow int, excessRequests int) bool {
			mr, err := miniredis.Run()
			if err != nil {
				t.Fatalf("Failed to start miniredis: %v", err)
			}
			defer mr.Close()

			redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			defer redisClient.Close()

			handler := RateLimitMiddleware(redisClient, RateLimitConfig{
				RequestsPerWindow: requestsPerWindow,
				Window:            time.Minute,
				KeyPrefix:         "ratelimit:subscribe",
			}, zap.NewNop())(okHandler())

			successCount, blockedCount := 0, 0
			for i := 0; i < requestsPerWindow+excessRequests; i++ {
				req := httptest.NewRequest("POST", "/api/subscribe", nil)
				// different ports, same client
				req.RemoteAddr = "192.168.1.100:" + strconv.Itoa(40000+i)
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusOK:
					successCount++
				case http.StatusTooManyRequests:
					blockedCount++
				}
			}

			return successCount == requestsPerWindow && blockedCount == excessRequests
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimit_HeadersAndWindowReset(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	limited := false
	handler := RateLimitMiddleware(redisClient, RateLimitConfig{
		RequestsPerWindow: 2,
		Window:            time.Minute,
		KeyPrefix:         "rl",
		OnLimit: func(w http.ResponseWriter) {
			limited = true
			w.WriteHeader(http.StatusTooManyRequests)
		},
	}, zap.NewNop())(okHandler())

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/subscribe", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	w := do()
	if w.Header().Get("X-RateLimit-Limit") != "2" || w.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Fatalf("unexpected headers: %v", w.Header())
	}
	do()
	w = do()
	if w.Code != http.StatusTooManyRequests || !limited {
		t.Fatalf("expected custom 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	mr.FastForward(2 * time.Minute)
	if w = do(); w.Code != http.StatusOK {
		t.Fatalf("expected window reset, got %d", w.Code)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()
	mr.Close()

	handler := RateLimitMiddleware(redisClient, RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, KeyPrefix: "rl"}, zap.NewNop())(okHandler())
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/subscribe", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 with redis down, got %d", i, w.Code)
		}
	}

	noClient := RateLimitMiddleware(nil, RateLimitConfig{RequestsPerWindow: 1}, zap.NewNop())(okHandler())
	w := httptest.NewRecorder()
	noClient.ServeHTTP(w, httptest.NewRequest("POST", "/api/subscribe", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected passthrough without redis, got %d", w.Code)
	}
}
