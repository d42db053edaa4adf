package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/showcase-api/internal/config"
	"github.com/noah-isme/showcase-api/internal/pricing"
)

func TestQuoteLimiterReturnsJSON429(t *testing.T) {
	store, err := NewLimiterStore(nil)
	require.NoError(t, err)
	mw, err := NewQuoteLimiter(store, "2-M", zerolog.Nop())
	require.NoError(t, err)

	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/UK/scale/quote", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, send("198.51.100.1").Code)
	require.Equal(t, http.StatusOK, send("198.51.100.1").Code)
	rec := send("198.51.100.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "RATE_LIMITED", body.Error.Code)

	require.Equal(t, http.StatusOK, send("198.51.100.2").Code)
}

func TestQuoteLimiterRejectsBadRate(t *testing.T) {
	store, err := NewLimiterStore(nil)
	require.NoError(t, err)
	_, err = NewQuoteLimiter(store, "lots", zerolog.Nop())
	require.Error(t, err)
}

func TestBuildWithoutRedis(t *testing.T) {
	cfg := &config.Config{
		CheckoutBaseURL:     "https://checkout.example.com/pay",
		CircuitMinRequests:  5,
		CircuitFailureRatio: 0.5,
		LeadsRecipients:     []string{"leads@example.com"},
	}
	deps, err := Build(context.Background(), cfg, zerolog.Nop(), Options{})
	require.NoError(t, err)
	defer deps.Close()

	require.Nil(t, deps.Redis)
	require.Nil(t, deps.TaskClient)
	require.Equal(t, "https://checkout.example.com/pay", deps.Catalog.Checkout.BaseURL)

	rate, err := deps.RateSource()(pricing.USD)
	require.NoError(t, err)
	require.Equal(t, "3428", rate.MonthlyBase.String())

	chain := deps.LeadChain(true)
	require.Len(t, chain.Transports, 1, "only the mailto fallback without relay urls")
	require.Empty(t, deps.LeadChain(false).Transports)
}

func TestBuildWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		RedisURL:            "redis://" + mr.Addr(),
		LeadsAsync:          true,
		CircuitMinRequests:  5,
		CircuitFailureRatio: 0.5,
	}
	deps, err := Build(context.Background(), cfg, zerolog.Nop(), Options{})
	require.NoError(t, err)
	defer deps.Close()

	require.NotNil(t, deps.Redis)
	require.NotNil(t, deps.TaskClient)

	store, err := NewLimiterStore(deps.Redis)
	require.NoError(t, err)
	require.NotNil(t, store)
}
