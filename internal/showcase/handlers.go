package showcase

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/showcase-api/internal/common"
	"github.com/noah-isme/showcase-api/internal/locale"
)

// Handler exposes the challenge endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/v1/{region}/challenges.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	region, err := locale.ParseRegion(chi.URLParam(r, "region"))
	if err != nil {
		common.WriteError(w, common.UnknownRegion(err))
		return
	}
	common.Data(w, http.StatusOK, h.service.Challenges(region), nil)
}

// Get handles GET /api/v1/{region}/challenges/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	region, err := locale.ParseRegion(chi.URLParam(r, "region"))
	if err != nil {
		common.WriteError(w, common.UnknownRegion(err))
		return
	}
	c, err := h.service.Challenge(region, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrChallengeNotFound) {
			common.WriteError(w, common.NewAppError("NOT_FOUND", "challenge not found", http.StatusNotFound, err).
				WithDetails(map[string]any{"redirect": region.Prefix()}))
			return
		}
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c, nil)
}
