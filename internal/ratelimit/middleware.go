package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/showcase-api/internal/common"
)

// Config is the per-key budget: at most Max requests in any Window.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler limits lead submissions. A limiter error fails open and is passed
// to OnError.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(context.Context, error)
}

// Middleware sets the X-RateLimit-* headers on every limited request and
// answers 429 with Retry-After once the budget is spent.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ""
		if h.Config.Key != nil {
			key = h.Config.Key(r)
		}
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), key, h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(r.Context(), err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(max(h.Config.Max, 0)))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := retryAfterSeconds(resetAt.Sub(h.Limiter.now()))
		headers.Set("Retry-After", strconv.Itoa(retryAfter))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many submissions, try again shortly",
			map[string]any{"retry_after_seconds": retryAfter})
	})
}

// retryAfterSeconds rounds up so clients never retry before the reset.
func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	return int(math.Ceil(d.Seconds()))
}

// ClientIPKey keys requests by client IP and the named URL parameter, so each
// lead form gets its own budget per visitor.
func ClientIPKey(param string) func(*http.Request) string {
	return func(r *http.Request) string {
		key := common.ClientIP(r)
		if key == "" {
			return ""
		}
		if param != "" {
			key += ":" + chi.URLParam(r, param)
		}
		return key
	}
}
