package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned while a relay's breaker refuses calls.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State is a breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

func (s State) gauge() float64 {
	switch s {
	case Closed:
		return 0
	case Open:
		return 1
	case HalfOpen:
		return 2
	default:
		return -1
	}
}

// Breaker guards one lead relay. It opens once at least MinRequests outcomes
// are recorded and the failure share reaches FailureRatio. After OpenFor a
// single probe is let through; its outcome closes or reopens the breaker.
type Breaker struct {
	cfg    BreakerConfig
	target string
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	total    int
	openedAt time.Time
	probing  bool
}

// NewBreaker builds a closed breaker for target. Zero config values fall back
// to 5 requests, a 0.5 ratio and 30s open.
func NewBreaker(target string, cfg BreakerConfig, logger zerolog.Logger) *Breaker {
	if cfg.MinRequests <= 0 {
		cfg.MinRequests = 5
	}
	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		cfg.FailureRatio = 0.5
	}
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = 30 * time.Second
	}
	target = strings.TrimSpace(target)
	if target == "" {
		target = "default"
	}
	b := &Breaker{cfg: cfg, target: target, logger: logger, now: time.Now}
	setStateGauge(target, Closed)
	return b
}

// Allow reports whether a call may go out now.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cfg.OpenFor {
			return false
		}
		b.moveLocked(ctx, HalfOpen)
		b.probing = true
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// Report records the outcome of a call that Allow let through.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		b.probing = false
		if success {
			b.moveLocked(ctx, Closed)
		} else {
			b.moveLocked(ctx, Open)
		}
		return
	}

	b.total++
	if !success {
		b.failures++
	}
	if b.total < b.cfg.MinRequests {
		return
	}
	if float64(b.failures)/float64(b.total) >= b.cfg.FailureRatio {
		b.moveLocked(ctx, Open)
		return
	}
	// halve the window so old successes do not mask a new outage
	if b.total >= b.cfg.MinRequests*2 {
		b.total = (b.total + 1) / 2
		b.failures = (b.failures + 1) / 2
	}
}

// State returns the current state. An expired open breaker stays open until
// the next Allow.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Target returns the relay name the breaker reports under.
func (b *Breaker) Target() string { return b.target }

func (b *Breaker) moveLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.failures, b.total = 0, 0
	switch next {
	case Open:
		b.openedAt = b.now()
	case Closed:
		b.openedAt = time.Time{}
	}
	setStateGauge(b.target, next)
	recordTransition(b.target, prev, next)

	evt := b.loggerFor(ctx).Info().Str("relay", b.target).Str("from_state", prev.String()).Str("to_state", next.String())
	if traceID := traceIDFromContext(ctx); traceID != "" {
		evt = evt.Str("trace_id", traceID)
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &b.logger
}

func traceIDFromContext(ctx context.Context) string {
	span := trace.SpanContextFromContext(ctx)
	if span.IsValid() {
		return span.TraceID().String()
	}
	return ""
}
