package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// BreakerConfig holds the thresholds shared by every breaker in a Breakers set.
type BreakerConfig struct {
	MinRequests  int
	FailureRatio float64
	OpenFor      time.Duration
}

// Breakers lazily creates one breaker per downstream target so a failing
// relay does not trip the others.
type Breakers struct {
	cfg    BreakerConfig
	logger zerolog.Logger

	mu  sync.Mutex
	set map[string]*Breaker
}

// NewBreakers constructs an empty breaker set.
func NewBreakers(cfg BreakerConfig, logger zerolog.Logger) *Breakers {
	return &Breakers{cfg: cfg, logger: logger, set: map[string]*Breaker{}}
}

// For returns the breaker for target, creating it on first use.
func (bs *Breakers) For(target string) *Breaker {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if b, ok := bs.set[target]; ok {
		return b
	}
	b := NewBreaker(target, bs.cfg, bs.logger)
	bs.set[target] = b
	return b
}

// States reports the state of every known breaker keyed by target.
func (bs *Breakers) States() map[string]string {
	bs.mu.Lock()
	targets := make([]string, 0, len(bs.set))
	for target := range bs.set {
		targets = append(targets, target)
	}
	bs.mu.Unlock()
	sort.Strings(targets)

	out := make(map[string]string, len(targets))
	for _, target := range targets {
		out[target] = bs.For(target).State().String()
	}
	return out
}
