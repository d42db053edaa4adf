package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/showcase-api/internal/obs"
)

// ErrAllTransportsFailed is returned when no transport accepted a lead. The
// error is joined with each transport's own failure.
var ErrAllTransportsFailed = errors.New("leads: all transports failed")

// Chain tries transports in order and stops at the first success. Attempts
// share nothing but the lead itself.
type Chain struct {
	Transports []Transport
	Logger     zerolog.Logger
}

// Submit delivers the lead.
func (c Chain) Submit(ctx context.Context, lead Lead) (Receipt, error) {
	errs := []error{ErrAllTransportsFailed}
	for _, t := range c.Transports {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		attemptCtx, done := obs.TransportAttempt(ctx, string(lead.Form), t.Name())
		receipt, err := t.Send(attemptCtx, lead)
		done(err)
		if err == nil {
			c.Logger.Info().
				Str("lead_id", lead.ID).
				Str("form", string(lead.Form)).
				Str("transport", t.Name()).
				Msg("lead delivered")
			return receipt, nil
		}
		c.Logger.Warn().
			Err(err).
			Str("lead_id", lead.ID).
			Str("form", string(lead.Form)).
			Str("transport", t.Name()).
			Msg("lead transport failed, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
	}
	return Receipt{}, errors.Join(errs...)
}
