package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHandlerMiddlewareEnforcesLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	handler := Handler{
		Limiter: Limiter{Client: client, Prefix: "ratelimit:"},
		Config: Config{
			Key:    func(*http.Request) string { return "static" },
			Window: time.Second,
			Max:    1,
		},
	}

	counted := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr1 := httptest.NewRecorder()
	counted.ServeHTTP(rr1, req.Clone(req.Context()))
	if rr1.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", rr1.Code)
	}

	rr2 := httptest.NewRecorder()
	counted.ServeHTTP(rr2, req.Clone(req.Context()))
	if rr2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second request, got %d", rr2.Code)
	}
	if !strings.Contains(rr2.Body.String(), "RATE_LIMITED") {
		t.Fatalf("expected canonical error body, got %s", rr2.Body.String())
	}
	if rr2.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("unexpected limit header: %q", rr2.Header().Get("X-RateLimit-Limit"))
	}
	if ra := rr2.Header().Get("Retry-After"); ra != "1" {
		t.Fatalf("expected Retry-After rounded up to 1, got %q", ra)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := map[time.Duration]int{
		-time.Second:            1,
		0:                       1,
		1500 * time.Millisecond: 2,
		time.Minute:             60,
	}
	for in, want := range cases {
		if got := retryAfterSeconds(in); got != want {
			t.Fatalf("retryAfterSeconds(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestHandlerSkipsEmptyKey(t *testing.T) {
	handler := Handler{
		Config: Config{Key: func(*http.Request) string { return "" }, Window: time.Second, Max: 0},
	}
	rr := httptest.NewRecorder()
	handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if rr.Code != http.StatusNoContent || rr.Header().Get("X-RateLimit-Limit") != "" {
		t.Fatalf("expected pass-through without headers, got %d", rr.Code)
	}
}

func TestHandlerMiddlewareOnError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	handler := Handler{
		Limiter: Limiter{Client: client, Prefix: "ratelimit:"},
		Config: Config{
			Key:    func(*http.Request) string { return "err" },
			Window: time.Second,
			Max:    1,
		},
	}

	called := false
	handler.OnError = func(context.Context, error) { called = true }

	counted := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	counted.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected handler to proceed on error, got %d", rr.Code)
	}
	if !called {
		t.Fatal("expected OnError callback to be invoked")
	}
	_ = client.Close()
}

func TestClientIPKeyPerForm(t *testing.T) {
	var keys []string
	key := ClientIPKey("form")
	r := chi.NewRouter()
	r.Post("/leads/{form}", func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, key(r))
	})

	for _, path := range []string{"/leads/scale", "/leads/custom"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if len(keys) != 2 || keys[0] != "203.0.113.7:scale" || keys[1] != "203.0.113.7:custom" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}
