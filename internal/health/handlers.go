package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/showcase-api/internal/common"
)

// Disabled is reported for dependencies that are not configured.
const Disabled = "disabled"

// Drain marks the process as shutting down. Readiness fails from then on so
// the load balancer stops routing new visitors here.
type Drain struct {
	draining atomic.Bool
}

// Start begins draining.
func (d *Drain) Start() {
	if d != nil {
		d.draining.Store(true)
	}
}

// Active reports whether draining has started.
func (d *Drain) Active() bool {
	return d != nil && d.draining.Load()
}

// Checker probes Redis.
type Checker interface {
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// BreakerStates reports the circuit state of each outbound lead relay.
type BreakerStates interface {
	States() map[string]string
}

// Report is the /health/ready body.
type Report struct {
	Status   string            `json:"status"`
	Redis    string            `json:"redis"`
	Relays   map[string]string `json:"relays,omitempty"`
	Draining bool              `json:"draining,omitempty"`
}

// Handler serves the health endpoints. A nil Checker means Redis is not
// configured, which does not fail readiness.
type Handler struct {
	Checker      Checker
	Breakers     BreakerStates
	Drain        *Drain
	RedisTimeout time.Duration
}

// Live always answers 200 while the process can serve HTTP.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready fails while draining or when a configured Redis does not answer.
// Open relay breakers are listed only, since the mailto fallback still works.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	rep := Report{Status: "ok", Redis: Disabled, Draining: h.Drain.Active()}
	if h.Checker != nil {
		rep.Redis = "ok"
		if err := h.Checker.PingRedis(r.Context(), h.redisTimeout()); err != nil {
			rep.Redis = err.Error()
			rep.Status = "unavailable"
		}
	}
	if h.Breakers != nil {
		if states := h.Breakers.States(); len(states) > 0 {
			rep.Relays = states
		}
	}
	if rep.Draining {
		rep.Status = "unavailable"
	}
	code := http.StatusOK
	if rep.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, rep)
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
