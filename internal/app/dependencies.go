package app

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/showcase-api/internal/catalog"
	"github.com/noah-isme/showcase-api/internal/common"
	"github.com/noah-isme/showcase-api/internal/config"
	"github.com/noah-isme/showcase-api/internal/leads"
	"github.com/noah-isme/showcase-api/internal/locale"
	"github.com/noah-isme/showcase-api/internal/pricing"
	"github.com/noah-isme/showcase-api/internal/resilience"
)

// Dependencies holds the services shared by the API and the worker.
type Dependencies struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Redis      *redis.Client
	Catalog    *catalog.Catalog
	Speller    locale.Speller
	Breakers   *resilience.Breakers
	Validator  *leads.Validator
	TaskClient *asynq.Client
}

// Options tweak how Build wires optional instrumentation.
type Options struct {
	RedisMetrics bool
}

// Build wires every shared dependency. Redis and the task client stay nil
// when REDIS_URL is not configured.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	cat, err := LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Catalog:   cat,
		Speller:   locale.DefaultSpeller(),
		Validator: leads.NewValidator(),
		Breakers: resilience.NewBreakers(resilience.BreakerConfig{
			MinRequests:  cfg.CircuitMinRequests,
			FailureRatio: cfg.CircuitFailureRatio,
			OpenFor:      cfg.CircuitOpenFor,
		}, logger),
	}
	if !cfg.RedisEnabled() {
		logger.Warn().Msg("REDIS_URL not set, rate limits and idempotency run without redis")
		return deps, nil
	}
	deps.Redis, err = NewRedis(ctx, cfg.RedisURL, opts.RedisMetrics, logger)
	if err != nil {
		return nil, err
	}
	if cfg.LeadsAsync {
		deps.TaskClient, err = NewTaskClient(cfg.RedisURL)
		if err != nil {
			_ = deps.Redis.Close()
			return nil, err
		}
	}
	return deps, nil
}

// Close releases the Redis connections.
func (d *Dependencies) Close() {
	if d.TaskClient != nil {
		if err := d.TaskClient.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close task client")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
}

// RateSource prefers the catalog's Scale price and falls back to the fixed
// rates for currencies the catalog does not publish.
func (d *Dependencies) RateSource() leads.RateSource {
	return func(cur pricing.Currency) (pricing.PlanRate, error) {
		if d.Catalog != nil {
			if rate, err := d.Catalog.ScaleRate(cur); err == nil {
				return rate, nil
			}
		}
		rate, ok := pricing.ScaleRate(cur)
		if !ok {
			return pricing.PlanRate{}, fmt.Errorf("%w: %s", pricing.ErrUnknownCurrency, cur)
		}
		return rate, nil
	}
}

// Relays returns the lead relay configuration.
func (d *Dependencies) Relays() leads.Relays {
	return leads.Relays{
		Recipients:    d.Config.LeadsRecipients,
		MailAPIURL:    d.Config.LeadsMailAPIURL,
		FormSubmitURL: d.Config.LeadsFormSubmitURL,
		NetlifyURL:    d.Config.LeadsNetlifyURL,
		Timeout:       d.Config.LeadsTransportTimeout,
	}
}

// LeadChain builds the delivery chain. The worker passes withMailto=false.
func (d *Dependencies) LeadChain(withMailto bool) leads.Chain {
	return leads.Chain{
		Transports: d.Relays().Transports(nil, d.Breakers, d.Logger, withMailto),
		Logger:     d.Logger,
	}
}

// LoadCatalog reads the plan catalog and applies the checkout override.
func LoadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	if cfg.CheckoutBaseURL != "" {
		cat.Checkout.BaseURL = cfg.CheckoutBaseURL
	}
	return cat, nil
}

// NewRedis connects to Redis with tracing and, optionally, metrics.
func NewRedis(ctx context.Context, url string, withMetrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if withMetrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewTaskClient builds an asynq client on the same Redis instance.
func NewTaskClient(url string) (*asynq.Client, error) {
	opt, err := asynq.ParseRedisURI(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri for tasks: %w", err)
	}
	return asynq.NewClient(opt), nil
}

// NewLimiterStore returns a Redis-backed limiter store, or an in-memory one
// when Redis is not configured.
func NewLimiterStore(rdb *redis.Client) (limiter.Store, error) {
	if rdb == nil {
		return memory.NewStore(), nil
	}
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "showcase:limiter"})
}

// NewQuoteLimiter builds a per-client limiter for the read endpoints from a
// formatted rate such as "120-M".
func NewQuoteLimiter(store limiter.Store, formatted string, logger zerolog.Logger) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse quote rate %q: %w", formatted, err)
	}
	mw := stdlib.NewMiddleware(
		limiter.New(store, rate),
		stdlib.WithKeyGetter(common.ClientIP),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", map[string]any{
				"retry_after_seconds": retryAfter(w.Header().Get("X-RateLimit-Reset")),
			})
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error().Err(err).Msg("quote limiter unavailable")
			common.JSONError(w, http.StatusServiceUnavailable, "LIMITER_UNAVAILABLE", "please retry shortly", nil)
		}),
	)
	return mw.Handler, nil
}

func retryAfter(reset string) int64 {
	at, err := strconv.ParseInt(reset, 10, 64)
	if err != nil {
		return 0
	}
	secs := at - time.Now().Unix()
	if secs < 0 {
		return 0
	}
	return secs
}
