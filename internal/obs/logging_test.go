package obs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggerLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "json", "debug")

	var handlerHasLogger bool
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RoutePatternMiddleware)
	r.Use(RequestLogger{Logger: logger}.Middleware)
	r.Route("/api/v1/{region}", func(r chi.Router) {
		r.Use(RegionMiddleware)
		r.Get("/scale/quote", func(w http.ResponseWriter, r *http.Request) {
			handlerHasLogger = zerolog.Ctx(r.Context()).GetLevel() != zerolog.Disabled
			w.WriteHeader(http.StatusBadRequest)
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/us/scale/quote?term=7", nil)
	req.RemoteAddr = "192.0.2.1:4000"
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "http_request", line["message"])
	require.Equal(t, "warn", line["level"])
	require.Equal(t, "/api/v1/{region}/scale/quote", line["route"])
	require.Equal(t, "US", line["region"])
	require.Equal(t, "192.0.2.1", line["client_ip"])
	require.NotEmpty(t, line["request_id"])
	require.True(t, handlerHasLogger)
}

func TestNewLoggerLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "json", "loud")
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}
