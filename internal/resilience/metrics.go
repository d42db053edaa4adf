package resilience

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsMu sync.RWMutex

	// BreakerState is 0 closed, 1 open, 2 half-open per relay.
	BreakerState *prometheus.GaugeVec
	// BreakerTransitions counts state changes per relay.
	BreakerTransitions *prometheus.CounterVec
	// BreakerOpenedTotal counts how often each relay's breaker opened.
	BreakerOpenedTotal *prometheus.CounterVec
)

// RegisterMetrics creates the breaker collectors under namespace and
// registers them with reg, or the default registerer when reg is nil.
// Until it runs, breakers do not report metrics.
func RegisterMetrics(namespace string, reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	state := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "lead_relay_breaker_state",
		Help:      "Breaker state per lead relay: 0=closed, 1=open, 2=half-open.",
	}, []string{"relay"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_relay_breaker_transitions_total",
		Help:      "Breaker state transitions per lead relay.",
	}, []string{"relay", "from", "to"})
	opened := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_relay_breaker_open_total",
		Help:      "Times a lead relay breaker opened.",
	}, []string{"relay"})

	state = register(reg, state)
	transitions = register(reg, transitions)
	opened = register(reg, opened)

	metricsMu.Lock()
	BreakerState, BreakerTransitions, BreakerOpenedTotal = state, transitions, opened
	metricsMu.Unlock()
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register breaker metric: %w", err))
	}
	return c
}

func setStateGauge(relay string, s State) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	if BreakerState != nil {
		BreakerState.WithLabelValues(relay).Set(s.gauge())
	}
}

func recordTransition(relay string, from, to State) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	if BreakerTransitions != nil {
		BreakerTransitions.WithLabelValues(relay, from.String(), to.String()).Inc()
	}
	if to == Open && BreakerOpenedTotal != nil {
		BreakerOpenedTotal.WithLabelValues(relay).Inc()
	}
}
