package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/showcase-api/internal/common"
	"github.com/noah-isme/showcase-api/internal/locale"
)

// Handler exposes the plan comparison endpoints.
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

// Plans handles GET /api/v1/{region}/plans?period=monthly|annual.
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	region, err := locale.ParseRegion(chi.URLParam(r, "region"))
	if err != nil {
		common.WriteError(w, common.UnknownRegion(err))
		return
	}
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		common.WriteError(w, common.NewAppError("INVALID_PERIOD", "period must be monthly or annual", http.StatusBadRequest, err))
		return
	}
	common.Data(w, http.StatusOK, h.service.Plans(region, period), map[string]any{
		"region":   region,
		"currency": region.Currency(),
		"period":   period,
	})
}

// PlanDetail handles GET /api/v1/{region}/plans/{slug}.
func (h *Handler) PlanDetail(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	region, err := locale.ParseRegion(chi.URLParam(r, "region"))
	if err != nil {
		common.WriteError(w, common.UnknownRegion(err))
		return
	}
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		common.WriteError(w, common.NewAppError("INVALID_PERIOD", "period must be monthly or annual", http.StatusBadRequest, err))
		return
	}
	slug := chi.URLParam(r, "slug")
	for _, view := range h.service.Plans(region, period) {
		if view.Slug == slug {
			common.Data(w, http.StatusOK, view, nil)
			return
		}
	}
	common.WriteError(w, common.NewAppError("NOT_FOUND", "plan not found", http.StatusNotFound, ErrPlanNotFound))
}
