package common

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const idemInFlight = "locked"

// Idem guards a path against a repeated Idempotency-Key. While the first
// request runs a repeat gets 409; once it has succeeded the stored response is
// replayed for TTL. Any non-2xx response releases the key so the visitor can
// correct the form and resubmit. Without Redis it passes every request through.
type Idem struct {
	R      *redis.Client
	TTL    time.Duration
	Prefix string
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

func (i Idem) key(path, header string) string {
	prefix := i.Prefix
	if prefix == "" {
		prefix = "idem:"
	}
	sum := sha256.Sum256([]byte(path + "|" + header))
	return prefix + hex.EncodeToString(sum[:])
}

func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := i.key(r.URL.Path, header)
		ok, err := i.R.SetNX(r.Context(), key, idemInFlight, i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusServiceUnavailable, "IDEMPOTENCY_UNAVAILABLE", "please retry shortly", nil)
			return
		}
		if !ok {
			i.replay(r.Context(), w, key)
			return
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			ctx := context.Background()
			if sw.status < 200 || sw.status >= 300 {
				_ = i.R.Del(ctx, key).Err()
				return
			}
			payload, err := json.Marshal(storedResponse{
				Status:      sw.status,
				ContentType: sw.Header().Get("Content-Type"),
				Body:        sw.body.Bytes(),
			})
			if err != nil {
				return
			}
			_ = i.R.Set(ctx, key, payload, redis.KeepTTL).Err()
		}()
		next.ServeHTTP(sw, r)
	})
}

func (i Idem) replay(ctx context.Context, w http.ResponseWriter, key string) {
	raw, err := i.R.Get(ctx, key).Bytes()
	if err != nil || string(raw) == idemInFlight {
		JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
		return
	}
	var stored storedResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
		return
	}
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

type statusWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Write(p []byte) (int, error) {
	s.body.Write(p)
	return s.ResponseWriter.Write(p)
}
