package promo

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/showcase-api/internal/common"
	"github.com/noah-isme/showcase-api/internal/locale"
	"github.com/noah-isme/showcase-api/internal/pricing"
)

// Handler exposes the Scale calculator endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Quote handles GET /api/v1/{region}/scale/quote?term=3|6|12.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo service not configured", nil)
		return
	}
	region, err := locale.ParseRegion(chi.URLParam(r, "region"))
	if err != nil {
		common.WriteError(w, common.UnknownRegion(err))
		return
	}
	raw := r.URL.Query().Get("term")
	if raw == "" {
		raw = "3"
	}
	term, err := pricing.ParseTerm(raw)
	if err != nil {
		common.WriteError(w, invalidTerm(err))
		return
	}
	view, err := h.service.Quote(r.Context(), region, term)
	if err != nil {
		common.WriteError(w, invalidTerm(err))
		return
	}
	common.Data(w, http.StatusOK, view, nil)
}

// Terms handles GET /api/v1/{region}/scale/terms.
func (h *Handler) Terms(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo service not configured", nil)
		return
	}
	region, err := locale.ParseRegion(chi.URLParam(r, "region"))
	if err != nil {
		common.WriteError(w, common.UnknownRegion(err))
		return
	}
	common.Data(w, http.StatusOK, h.service.Terms(region), map[string]any{"default": int(pricing.Term3)})
}

func invalidTerm(err error) error {
	if errors.Is(err, pricing.ErrInvalidTerm) {
		return common.NewAppError("INVALID_TERM", "term must be 3, 6 or 12 months", http.StatusBadRequest, err)
	}
	return err
}
