package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/baywoodland/woodland/internal/auth"
	"github.com/baywoodland/woodland/internal/config"
	"github.com/baywoodland/woodland/internal/gallery"
	"github.com/baywoodland/woodland/internal/identity"
	"github.com/baywoodland/woodland/internal/landmark"
	"github.com/baywoodland/woodland/internal/metrics"
	"github.com/baywoodland/woodland/internal/middleware"
	"github.com/baywoodland/woodland/internal/notification"
	"github.com/baywoodland/woodland/internal/otp"
	"github.com/baywoodland/woodland/internal/proximity"
	"github.com/baywoodland/woodland/internal/weather"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// are optional in development; in-memory backends are used when they are nil.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Notifier  notification.Notifier
	Landmarks landmark.Repository
	Monitor   *proximity.Monitor
	Announcer proximity.Announcer
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Notifier == nil {
		d.Notifier = notification.NewLoggerNotifier(d.Logger)
	}
	if d.Landmarks == nil {
		repo := landmark.NewMemoryRepository()
		if err := repo.Seed(context.Background(), landmark.Defaults()); err != nil {
			return err
		}
		d.Landmarks = repo
	}
	if d.Monitor == nil {
		list, err := d.Landmarks.List(context.Background())
		if err != nil {
			return fmt.Errorf("load landmarks: %w", err)
		}
		d.Monitor = proximity.NewMonitor(list, d.Cfg.Proximity.ThresholdMeters,
			proximity.WithLogger(d.Logger), proximity.WithMetrics(d.Metrics),
			proximity.WithIdleTTL(d.Cfg.Proximity.VisitorIdleTTL))
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger, "/healthz", "/metrics"))
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.Cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))

	RegisterHealthRoutes(app, d)
	RegisterMetricsRoute(app, d.Gatherer)

	// OTP relay keeps its original root paths for the existing frontend.
	var store otp.Store = otp.NewMemoryStore(d.Cfg.OTP.TTL)
	if d.Cache != nil {
		store = otp.NewRedisStore(d.Cache, d.Cfg.OTP.TTL)
	}
	otpSvc := otp.NewService(store, d.Notifier,
		otp.WithTTL(d.Cfg.OTP.TTL),
		otp.WithMetrics(d.Metrics),
		otp.WithLogger(d.Logger),
	)
	RegisterOTPRoutes(app, otp.NewHandler(otpSvc),
		middleware.OTPRateLimit(d.Cache, d.Cfg.OTP.RequestsPerHour, d.Logger),
		middleware.OTPVerifyRateLimit(d.Cache, d.Cfg.OTP.VerifyAttemptsPerHour, d.Logger),
	)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFromContext(c.UserContext()),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterLandmarkRoutes(api, landmark.NewHandler(d.Landmarks))
	RegisterProximityRoutes(api, proximity.NewHandler(d.Monitor, d.Announcer))
	RegisterWeatherRoutes(api, weather.NewHandler(weather.NewClient(d.Cfg.Weather, d.Cache, d.Logger)))

	var galleryRepo gallery.Repository
	if d.DB != nil {
		galleryRepo = gallery.NewPostgresRepository(d.DB)
	} else {
		galleryRepo = gallery.NewMemoryRepository()
	}
	galleryHandler := gallery.NewHandler(gallery.NewService(galleryRepo, d.Metrics, d.Logger))
	RegisterGalleryRoutes(api, galleryHandler)

	authSvc, err := auth.NewService(d.Cfg.Admin)
	if err != nil {
		return err
	}

	var accountRepo identity.Repository
	if d.DB != nil {
		accountRepo = identity.NewPostgresRepository(d.DB)
	} else {
		accountRepo = identity.NewMemoryRepository()
	}
	accounts, err := identity.NewService(accountRepo, authSvc, d.Metrics, d.Logger)
	if err != nil {
		return err
	}
	RegisterAccountRoutes(api, identity.NewHandler(accounts),
		middleware.LoginRateLimit(d.Cache, d.Cfg.Accounts.LoginAttemptsPerHour, d.Logger),
		middleware.VisitorAuth(authSvc),
	)

	admin := RegisterAdminRoutes(api, auth.NewHandler(authSvc),
		middleware.AdminAuth(authSvc),
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
	)
	RegisterModerationRoutes(admin, galleryHandler)

	return nil
}
