package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/showcase-api/internal/app"
	"github.com/noah-isme/showcase-api/internal/catalog"
	"github.com/noah-isme/showcase-api/internal/common"
	"github.com/noah-isme/showcase-api/internal/config"
	"github.com/noah-isme/showcase-api/internal/health"
	"github.com/noah-isme/showcase-api/internal/leads"
	"github.com/noah-isme/showcase-api/internal/locale"
	"github.com/noah-isme/showcase-api/internal/obs"
	"github.com/noah-isme/showcase-api/internal/promo"
	"github.com/noah-isme/showcase-api/internal/ratelimit"
	"github.com/noah-isme/showcase-api/internal/resilience"
	"github.com/noah-isme/showcase-api/internal/security"
	"github.com/noah-isme/showcase-api/internal/showcase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "showcase")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)
	resilience.RegisterMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:    "showcase-api",
			ServiceVersion: envOrDefault("APP_VERSION", "dev"),
			Endpoint:       envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:       envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio:  envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:    cfg.AppEnv,
			Insecure:       envBool("OBS_OTLP_INSECURE", !cfg.IsProduction()),
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, logger, app.Options{RedisMetrics: metricsEnabled})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	defaultRegion, _ := locale.ParseRegion(cfg.DefaultRegion)

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{
		Service: &catalog.Service{Catalog: deps.Catalog, Speller: deps.Speller},
	})
	promoHandler := promo.NewHandler(promo.HandlerConfig{
		Service: &promo.Service{Catalog: deps.Catalog, Speller: deps.Speller, Logger: logger},
	})
	showcaseService, err := showcase.NewService(deps.Speller)
	if err != nil {
		logger.Fatal().Err(err).Msg("load showcase content")
	}
	showcaseHandler := showcase.NewHandler(showcaseService)
	routesHandler := locale.Handler{Resolver: locale.Resolver{KnownChallenge: showcaseService.Has, Default: defaultRegion}}

	leadHandler := leads.NewHandler(leads.HandlerConfig{
		Validator: deps.Validator,
		Composer:  leads.Composer{Rates: deps.RateSource(), SiteURL: cfg.PublicBaseURL},
		Chain:     deps.LeadChain(true),
		Queue:     taskQueue(deps),
		Async:     cfg.LeadsAsync,
		Logger:    logger.With().Str("component", "leads").Logger(),
	})
	if len(cfg.LeadsRecipients) == 0 {
		logger.Warn().Msg("LEADS_RECIPIENTS not set, lead forms can only reach the form relays")
	}

	limiterStore, err := app.NewLimiterStore(deps.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise limiter store")
	}
	quoteLimit, err := app.NewQuoteLimiter(limiterStore, cfg.QuoteRateLimit, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise quote limiter")
	}
	leadLimit := leadRateLimit(cfg, deps)
	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL, Prefix: "showcase:idem:"}
	bodyLimit := security.BodyLimit{Max: cfg.HTTPBodyLimitBytes, ContentTypes: []string{"application/json"}}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{
		Enable:     cfg.SecurityHeadersEnable,
		EnableHSTS: cfg.SecurityHSTSEnable,
		HSTSMaxAge: cfg.SecurityHSTSMaxAge,
	}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", !cfg.IsProduction()) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	drain := &health.Drain{}
	healthHandler := health.Handler{
		Breakers:     deps.Breakers,
		Drain:        drain,
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	if deps.Redis != nil {
		healthHandler.Checker = health.RedisChecker{Client: deps.Redis}
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.With(quoteLimit).Get("/routes/resolve", routesHandler.Resolve)

		v.Route("/{region}", func(rg chi.Router) {
			rg.Use(obs.RegionMiddleware)

			rg.Group(func(read chi.Router) {
				read.Use(quoteLimit)
				read.Get("/plans", catalogHandler.Plans)
				read.Get("/plans/{slug}", catalogHandler.PlanDetail)
				read.Get("/scale/quote", promoHandler.Quote)
				read.Get("/scale/terms", promoHandler.Terms)
				read.Get("/challenges", showcaseHandler.List)
				read.Get("/challenges/{id}", showcaseHandler.Get)
			})

			rg.With(bodyLimit.Middleware, leadLimit, idem.Middleware).Post("/leads/{form}", leadHandler.Submit)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Bool("leads_async", cfg.LeadsAsync).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-ctx.Done()
	drain.Start()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

// taskQueue avoids handing a typed nil client to the handler.
func taskQueue(deps *app.Dependencies) leads.Enqueuer {
	if deps.TaskClient == nil {
		return nil
	}
	return deps.TaskClient
}

func leadRateLimit(cfg *config.Config, deps *app.Dependencies) func(http.Handler) http.Handler {
	if deps.Redis == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: deps.Redis, Prefix: "showcase:rl:leads:"},
		Config: ratelimit.Config{
			Key:    ratelimit.ClientIPKey("form"),
			Window: cfg.LeadsRateLimitWindow,
			Max:    cfg.LeadsRateLimitMax,
		},
		OnError: func(ctx context.Context, err error) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("lead rate limiter unavailable")
		},
	}.Middleware
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
