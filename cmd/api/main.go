package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/eventlite/internal/config"
	"github.com/geocoder89/eventlite/internal/db"
	httpx "github.com/geocoder89/eventlite/internal/http"
	"github.com/geocoder89/eventlite/internal/http/middlewares"
	"github.com/geocoder89/eventlite/internal/observability"
	"github.com/geocoder89/eventlite/internal/queue/redisclient"
	"github.com/geocoder89/eventlite/internal/repo/postgres"
	"github.com/geocoder89/eventlite/internal/uploads"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	// metrics registry
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// tracing is opt-in via OTEL_EXPORTER_OTLP_ENDPOINT
	tracing := cfg.OTLPEndpoint != ""

	if tracing {
		shutdown, err := observability.InitTracer(context.Background(), "eventlite-api", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	bannerStore, err := uploads.NewStore(cfg.UploadDir, cfg.MaxUploadSize)

	if err != nil {
		log.Error("upload dir init failed", "err", err)
		os.Exit(1)
	}

	// redis is optional; without it registration is simply not rate limited
	var limiter *middlewares.RateLimiter

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rc.Close()

		pingCtx, cancel := config.WithTimeout(2 * time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable, rate limiting disabled", "err", err)
		} else {
			limiter = middlewares.NewRateLimiter(rc.Raw(), 10, time.Minute)
		}
		cancel()
	}

	router := httpx.NewRouter(log, httpx.Deps{
		Events:        postgres.NewEventsRepo(pool),
		Registrations: postgres.NewRegistrationsRepo(pool, prom),
		Jobs:          postgres.NewJobsRepo(pool, prom),
		Banners:       bannerStore,
		Ping: func() error {
			ctx, cancel := config.WithTimeout(2 * time.Second)
			defer cancel()
			return pool.Ping(ctx)
		},
		UploadDir: bannerStore.Dir(),
		// headroom over the upload ceiling for the other multipart fields
		MaxBodyBytes: cfg.MaxUploadSize + (1 << 20),
		Prom:         prom,
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Limiter:   limiter,
		Tracing:   tracing,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
