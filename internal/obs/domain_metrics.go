package obs

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesTotal counts Scale quote computations by outcome.
	QuotesTotal *prometheus.CounterVec
	// LeadSubmissionsTotal counts lead form outcomes per delivery transport.
	LeadSubmissionsTotal *prometheus.CounterVec
	// LeadTransportLatency records delivery attempt latency in milliseconds.
	LeadTransportLatency *prometheus.HistogramVec
	// LeadsEnqueuedTotal counts leads handed to the background worker.
	LeadsEnqueuedTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of Scale plan quotes by currency, term and outcome.",
		}, []string{"currency", "term", "result"})
		LeadSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lead_submissions_total",
			Help:      "Count of lead form deliveries by form, transport and outcome.",
		}, []string{"form", "transport", "result"})
		LeadTransportLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lead_transport_duration_ms",
			Help:      "Latency for lead delivery attempts in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"transport"})
		LeadsEnqueuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_enqueued_total",
			Help:      "Number of leads queued for background delivery.",
		})

		mustRegisterCollector(reg, QuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuotesTotal = v
			}
		})
		mustRegisterCollector(reg, LeadSubmissionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				LeadSubmissionsTotal = v
			}
		})
		mustRegisterCollector(reg, LeadTransportLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				LeadTransportLatency = v
			}
		})
		mustRegisterCollector(reg, LeadsEnqueuedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				LeadsEnqueuedTotal = v
			}
		})
	})
}

// RecordQuote is a no-op until MustRegisterDomainMetrics has run.
func RecordQuote(currency, term, result string) {
	if QuotesTotal != nil {
		QuotesTotal.WithLabelValues(currency, term, result).Inc()
	}
}

// RecordLeadAttempt records one delivery attempt.
func RecordLeadAttempt(form, transport, result string, took time.Duration) {
	if LeadSubmissionsTotal != nil {
		LeadSubmissionsTotal.WithLabelValues(form, transport, result).Inc()
	}
	if LeadTransportLatency != nil {
		LeadTransportLatency.WithLabelValues(transport).Observe(float64(took.Milliseconds()))
	}
}

// RecordLeadEnqueued counts a lead handed to the worker.
func RecordLeadEnqueued() {
	if LeadsEnqueuedTotal != nil {
		LeadsEnqueuedTotal.Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
