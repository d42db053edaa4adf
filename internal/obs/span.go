package obs

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// TransportAttempt wraps one outbound lead delivery in a span and records the
// attempt on the otel meter. The returned func must be called with the
// attempt's error.
func TransportAttempt(ctx context.Context, form, transport string) (context.Context, func(error)) {
	ctx, span := otel.Tracer("leads.transport").Start(ctx, "lead.deliver "+transport)
	span.SetAttributes(
		attribute.String("lead.form", form),
		attribute.String("lead.transport", transport),
	)
	start := time.Now()
	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		attempts().Add(ctx, 1, metric.WithAttributes(
			attribute.String("transport", transport),
			attribute.String("result", result),
		))
		RecordLeadAttempt(form, transport, result, time.Since(start))
		span.End()
	}
}

var (
	attemptsOnce    sync.Once
	attemptsCounter metric.Int64Counter
)

func attempts() metric.Int64Counter {
	attemptsOnce.Do(func() {
		counter, err := otel.Meter("leads").Int64Counter("lead.transport.attempts",
			metric.WithDescription("Lead delivery attempts per transport."))
		if err != nil {
			attemptsCounter = noop.Int64Counter{}
			return
		}
		attemptsCounter = counter
	})
	return attemptsCounter
}
