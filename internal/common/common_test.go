package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestWriteErrorAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NewAppError("INVALID_TERM", "term must be 3, 6 or 12", http.StatusBadRequest, errors.New("bad")).
		WithDetails(map[string]any{"allowed": []int{3, 6, 12}}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, "INVALID_TERM", body.Code)
	require.Equal(t, "term must be 3, 6 or 12", body.Message)
	require.NotNil(t, body.Details)
}

func TestWriteErrorReportsSyntaxOffset(t *testing.T) {
	var v map[string]any
	err := json.Unmarshal([]byte(`{"a":`), &v)
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteError(rec, NewAppError("INVALID_BODY", "bad json", http.StatusBadRequest, err))
	body := decodeError(t, rec)
	require.Equal(t, map[string]any{"offset": float64(5)}, body.Details)
}

func TestWriteErrorHidesPlainErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("connection refused to 10.0.0.3"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, "INTERNAL", body.Code)
	require.Equal(t, "internal error", body.Message)
}

func TestDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Data(rec, http.StatusOK, []int{1}, nil)
	require.JSONEq(t, `{"data":[1]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Data(rec, http.StatusAccepted, map[string]string{"id": "x"}, map[string]int{"n": 1})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.JSONEq(t, `{"data":{"id":"x"},"meta":{"n":1}}`, rec.Body.String())
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name   string
		xff    string
		real   string
		remote string
		want   string
	}{
		{name: "first forwarded hop", xff: "203.0.113.7, 10.0.0.1", remote: "10.0.0.2:1234", want: "203.0.113.7"},
		{name: "skips garbage hop", xff: "unknown, 198.51.100.4", remote: "10.0.0.2:1234", want: "198.51.100.4"},
		{name: "real ip header", real: "2001:db8::1", remote: "10.0.0.2:1234", want: "2001:db8::1"},
		{name: "remote addr", remote: "192.0.2.10:5555", want: "192.0.2.10"},
		{name: "mapped v4", remote: "[::ffff:192.0.2.9]:80", want: "192.0.2.9"},
		{name: "unparseable remote", remote: "pipe", want: "pipe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.real != "" {
				req.Header.Set("X-Real-IP", tc.real)
			}
			require.Equal(t, tc.want, ClientIP(req))
		})
	}
	require.Empty(t, ClientIP(nil))
}

func TestIdempotencyReplaysFirstReceipt(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	calls := 0
	h := Idem{R: rdb, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		JSON(w, http.StatusOK, map[string]any{"id": calls, "mailto": "mailto:sales@example.com"})
	}))

	send := func(path, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("/api/v1/UK/leads/scale", "abc")
	require.Equal(t, http.StatusOK, first.Code)

	again := send("/api/v1/UK/leads/scale", "abc")
	require.Equal(t, http.StatusOK, again.Code)
	require.Equal(t, "true", again.Header().Get("Idempotent-Replayed"))
	require.Equal(t, first.Header().Get("Content-Type"), again.Header().Get("Content-Type"))
	require.JSONEq(t, first.Body.String(), again.Body.String())

	require.Equal(t, http.StatusOK, send("/api/v1/UK/leads/custom", "abc").Code)
	require.Equal(t, http.StatusOK, send("/api/v1/UK/leads/scale", "").Code)
	require.Equal(t, 3, calls)

	mr.FastForward(2 * time.Minute)
	require.Equal(t, http.StatusOK, send("/api/v1/UK/leads/scale", "abc").Code)
	require.Equal(t, 4, calls)
}

func TestIdempotencyRejectsKeyInFlight(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	idem := Idem{R: rdb, TTL: time.Minute, Prefix: "test:idem:"}
	require.NoError(t, mr.Set(idem.key("/api/v1/UK/leads/scale", "k1"), "locked"))

	called := false
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/UK/leads/scale", nil)
	req.Header.Set("Idempotency-Key", "k1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "IDEMPOTENT_REPLAY", decodeError(t, rec).Code)
	require.False(t, called)
}

func TestIdempotencyReleasesKeyAfterFailure(t *testing.T) {
	for _, failed := range []int{http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusBadGateway} {
		t.Run(http.StatusText(failed), func(t *testing.T) {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })

			status := failed
			calls := 0
			h := Idem{R: rdb, TTL: 10 * time.Minute, Prefix: "test:idem:"}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(status)
			}))
			send := func() int {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/UK/leads/scale", nil)
				req.Header.Set("Idempotency-Key", "k1")
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)
				return rec.Code
			}

			require.Equal(t, failed, send())
			require.Empty(t, mr.Keys())

			status = http.StatusOK
			require.Equal(t, http.StatusOK, send())
			require.Len(t, mr.Keys(), 1)
			require.Equal(t, http.StatusOK, send())
			require.Equal(t, 2, calls)
		})
	}
}

func TestIdempotencyPassesThroughWithoutRedis(t *testing.T) {
	h := Idem{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Idempotency-Key", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
