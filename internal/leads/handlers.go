package leads

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/showcase-api/internal/common"
	"github.com/noah-isme/showcase-api/internal/locale"
	"github.com/noah-isme/showcase-api/internal/pricing"
)

// Handler exposes the lead form endpoint.
type Handler struct {
	validator *Validator
	composer  Composer
	chain     Chain
	queue     Enqueuer
	async     bool
	logger    zerolog.Logger
}

// HandlerConfig configures the Handler dependencies. Queue is only used when
// Async is set.
type HandlerConfig struct {
	Validator *Validator
	Composer  Composer
	Chain     Chain
	Queue     Enqueuer
	Async     bool
	Logger    zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	val := cfg.Validator
	if val == nil {
		val = NewValidator()
	}
	return &Handler{
		validator: val,
		composer:  cfg.Composer,
		chain:     cfg.Chain,
		queue:     cfg.Queue,
		async:     cfg.Async,
		logger:    cfg.Logger,
	}
}

// Submit handles POST /api/v1/{region}/leads/{form}.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	region, err := locale.ParseRegion(chi.URLParam(r, "region"))
	if err != nil {
		common.WriteError(w, common.UnknownRegion(err))
		return
	}
	kind, err := ParseFormKind(chi.URLParam(r, "form"))
	if err != nil {
		common.WriteError(w, common.NewAppError("UNKNOWN_FORM", "form must be scale or custom", http.StatusNotFound, err))
		return
	}
	sub, err := Decode(r.Body, kind, h.validator)
	if err != nil {
		common.WriteError(w, submissionError(err))
		return
	}
	lead, err := h.composer.Compose(kind, region, sub)
	if err != nil {
		common.WriteError(w, submissionError(err))
		return
	}

	ctx := r.Context()
	if h.async && h.queue != nil {
		if err := Enqueue(ctx, h.queue, lead); err == nil {
			common.Data(w, http.StatusAccepted, map[string]any{"id": lead.ID, "status": "queued"}, nil)
			return
		}
		h.logger.Error().Err(err).Str("lead_id", lead.ID).Msg("enqueue lead failed, delivering inline")
	}

	receipt, err := h.chain.Submit(ctx, lead)
	if err != nil {
		h.logger.Error().Err(err).Str("lead_id", lead.ID).Msg("lead delivery failed")
		common.WriteError(w, common.NewAppError("DELIVERY_FAILED", "we could not send your enquiry, please email us directly", http.StatusBadGateway, err))
		return
	}
	data := map[string]any{"id": lead.ID, "transport": receipt.Transport}
	if receipt.Mailto != "" {
		data["mailto"] = receipt.Mailto
	}
	common.Data(w, http.StatusOK, data, nil)
}

func submissionError(err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return common.NewAppError("VALIDATION_FAILED", "please check the highlighted fields", http.StatusUnprocessableEntity, err).
			WithDetails(map[string]any{"fields": verr.Fields})
	case errors.Is(err, pricing.ErrInvalidTerm), errors.Is(err, pricing.ErrUnknownCurrency):
		return common.NewAppError("VALIDATION_FAILED", err.Error(), http.StatusUnprocessableEntity, err)
	default:
		return common.NewAppError("INVALID_BODY", "request body must be a JSON object", http.StatusBadRequest, err)
	}
}
