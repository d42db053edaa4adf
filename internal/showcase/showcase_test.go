package showcase

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/showcase-api/internal/locale"
)

func TestChallengesLocalized(t *testing.T) {
	svc, err := NewService(locale.DefaultSpeller())
	require.NoError(t, err)
	require.Equal(t, []string{"outreach", "landing", "content", "tools"}, svc.IDs())

	uk, err := svc.Challenge(locale.UK, "landing")
	require.NoError(t, err)
	require.Equal(t, "Personalised Landing Pages", uk.Title)

	us, err := svc.Challenge(locale.US, "landing")
	require.NoError(t, err)
	require.Equal(t, "Personalized Landing Pages", us.Title)
	require.Contains(t, us.Features[0].Description, "behavioral insights")

	_, err = svc.Challenge(locale.UK, "billing")
	require.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestHandlers(t *testing.T) {
	svc, err := NewService(locale.DefaultSpeller())
	require.NoError(t, err)
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/api/v1/{region}/challenges", h.List)
	r.Get("/api/v1/{region}/challenges/{id}", h.Get)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/US/challenges", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Multi Channel Outreach")

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/EU/challenges/unknown", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), `"redirect":"/EU"`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/XX/challenges", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "UNKNOWN_REGION")
}
