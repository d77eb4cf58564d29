package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/geocoder89/eventlite/internal/config"
	"github.com/geocoder89/eventlite/internal/db"
	"github.com/geocoder89/eventlite/internal/notifications"
	"github.com/geocoder89/eventlite/internal/observability"
	"github.com/geocoder89/eventlite/internal/queue/worker"
	"github.com/geocoder89/eventlite/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	jobsRepo := postgres.NewJobsRepo(pool, prom)

	// job metrics are exposed on their own port next to the API's
	metricsSrv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port+1),
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "err", err)
		}
	}()

	var base notifications.Notifier

	switch cfg.MailProvider {
	case "ses":
		base = notifications.NewSESNotifier(notifications.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretKey,
			FromAddress:     cfg.MailFrom,
			FromName:        cfg.MailFromName,
		})

	default:
		base = notifications.NewLogNotifier()
	}

	notifier := notifications.NewProtectedNotifier(base, notifications.ProtectedNotifierConfig{})

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		PollInterval: 100 * time.Millisecond,
		WorkerID:     workerID,
	}, jobsRepo, notifier, log, prom)

	log.Info("worker has started", "worker_id", workerID, "mail_provider", cfg.MailProvider)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
