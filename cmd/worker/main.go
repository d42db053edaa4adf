package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/showcase-api/internal/app"
	"github.com/noah-isme/showcase-api/internal/config"
	"github.com/noah-isme/showcase-api/internal/leads"
	"github.com/noah-isme/showcase-api/internal/obs"
	"github.com/noah-isme/showcase-api/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	if !cfg.RedisEnabled() {
		logger.Fatal().Msg("REDIS_URL is required to run the lead worker")
	}
	namespace := envOrDefault("OBS_METRICS_NAMESPACE", "showcase")
	obs.MustRegisterDomainMetrics(namespace, nil)
	resilience.RegisterMetrics(namespace, nil)
	if addr := envOrDefault("WORKER_METRICS_ADDR", ""); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("worker metrics listener stopped")
			}
		}()
	}

	if envOrDefault("OBS_ENABLE_TRACING", "true") == "true" {
		ratio, _ := strconv.ParseFloat(envOrDefault("OBS_TRACING_SAMPLING_RATIO", "1"), 64)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:    "showcase-worker",
			ServiceVersion: envOrDefault("APP_VERSION", "dev"),
			Endpoint:       envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:       envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio:  ratio,
			Environment:    cfg.AppEnv,
			Insecure:       !cfg.IsProduction(),
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	deps, err := app.Build(context.Background(), cfg, logger, app.Options{})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      map[string]int{leads.QueueName: 1},
		Logger:      asynqLogger{logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("task", task.Type()).Msg("lead task failed")
		}),
		ShutdownTimeout: cfg.ShutdownTimeout,
	})

	mux := asynq.NewServeMux()
	mux.Handle(leads.TaskDeliver, leads.TaskHandler{Chain: deps.LeadChain(false), Logger: logger})

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	// Run blocks until SIGINT or SIGTERM.
	if err := srv.Run(mux); err != nil {
		logger.Error().Err(err).Msg("worker stopped with error")
		return
	}
	logger.Info().Msg("worker shutdown complete")
}

// asynqLogger routes asynq's internal logs through zerolog.
type asynqLogger struct {
	l zerolog.Logger
}

func (a asynqLogger) Debug(args ...any) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...any)  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...any)  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...any) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...any) { a.l.Fatal().Msg(fmt.Sprint(args...)) }

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
