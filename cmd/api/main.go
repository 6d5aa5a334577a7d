package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/baywoodland/woodland/internal/config"
	"github.com/baywoodland/woodland/internal/infra"
	"github.com/baywoodland/woodland/internal/landmark"
	"github.com/baywoodland/woodland/internal/logging"
	"github.com/baywoodland/woodland/internal/metrics"
	"github.com/baywoodland/woodland/internal/notification"
	"github.com/baywoodland/woodland/internal/proximity"
	"github.com/baywoodland/woodland/internal/routes"
	"github.com/baywoodland/woodland/internal/server"
)

const deliveryBackoff = 500 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" || !cfg.IsDev() {
		db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := infra.EnsureSchema(ctx, db); err != nil {
			logger.Error("apply schema", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	var cache *redis.Client
	if cfg.RedisURL != "" || !cfg.IsDev() {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	} else {
		logger.Warn("REDIS_URL not set, using in-memory otp store and rate limits")
	}

	var landmarks landmark.Repository
	if db != nil {
		landmarks = landmark.NewPostgresRepository(db, logger)
	} else {
		landmarks = landmark.NewMemoryRepository()
	}
	if err := landmarks.Seed(ctx, landmark.Defaults()); err != nil {
		logger.Error("seed landmarks", "error", err)
		os.Exit(1)
	}
	list, err := landmarks.List(ctx)
	if err != nil {
		logger.Error("load landmarks", "error", err)
		os.Exit(1)
	}
	monitor := proximity.NewMonitor(list, cfg.Proximity.ThresholdMeters,
		proximity.WithMetrics(m), proximity.WithLogger(logger),
		proximity.WithIdleTTL(cfg.Proximity.VisitorIdleTTL))

	notifier, err := buildNotifier(cfg, m, logger)
	if err != nil {
		logger.Error("build notifier", "error", err)
		os.Exit(1)
	}

	var announcer proximity.Announcer = proximity.NewLogAnnouncer(logger)
	if cfg.MQTT.BrokerURL != "" {
		hooks := &infra.ConnectHooks{}
		client, err := infra.NewMQTTClient(cfg.MQTT, logger, hooks)
		if err != nil {
			logger.Error("connect mqtt", "error", err)
			os.Exit(1)
		}
		defer client.Disconnect(250)

		source, err := proximity.NewMQTTSource(client, cfg.MQTT.Topic, logger)
		if err != nil {
			logger.Error("subscribe location feed", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := source.Close(); err != nil {
				logger.Warn("close location feed", "error", err)
			}
		}()
		hooks.Add(func() {
			if err := source.Resubscribe(); err != nil {
				logger.Warn("resubscribe location feed", "error", err)
			}
		})

		announcer = proximity.NewMQTTAnnouncer(client)
		go proximity.Dispatch(ctx, monitor.Run(ctx, source.Readings()), announcer, logger)
	}

	srv, err := server.New(routes.Deps{
		Cfg:       cfg,
		DB:        db,
		Cache:     cache,
		Logger:    logger,
		Metrics:   m,
		Gatherer:  reg,
		Notifier:  notifier,
		Landmarks: landmarks,
		Monitor:   monitor,
		Announcer: announcer,
	})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}

// buildNotifier sends mail over SMTP when configured and logs it otherwise.
// Deliveries are retried and then instrumented.
func buildNotifier(cfg config.Config, m *metrics.Metrics, logger *slog.Logger) (notification.Notifier, error) {
	var base notification.Notifier
	if cfg.SMTP.Host == "" {
		logger.Warn("SMTP_HOST not set, mail will be logged instead of sent")
		base = notification.NewLoggerNotifier(logger)
	} else {
		smtp, err := notification.NewSMTPNotifier(notification.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		if err != nil {
			return nil, err
		}
		base = smtp
	}
	retrying := notification.NewRetryNotifier(base, cfg.SMTP.Retries, deliveryBackoff)
	return notification.NewInstrumentedNotifier(retrying, m, logger), nil
}
