package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"briefcase/internal/config"
	"briefcase/internal/encryption"
	handlers "briefcase/internal/http/handler"
	"briefcase/internal/http/middleware"
	"briefcase/internal/lifecycle"
	"briefcase/internal/logging"
	"briefcase/internal/metrics"
	"briefcase/internal/otel"
	"briefcase/internal/repository/backend"
	"briefcase/internal/service"
	"briefcase/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.MustLoad()
	log := logging.New(cfg.Log, cfg.Location())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, cfg.Tracing, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracing")
	}

	store, err := backend.Open(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer store.Close()

	cipher, err := newCipher(cfg.Encryption, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize encryption")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		log.WithError(err).Fatal("failed to register metrics")
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.WithError(err).Fatal("failed to register http metrics")
	}

	opts := []lifecycle.Option{
		lifecycle.WithMetrics(m),
		lifecycle.WithLogger(log),
	}
	if cfg.PayloadBackend == config.PayloadMinIO {
		// Initialize reusable S3-compatible object storage client (MinIO-supported)
		objStore, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize object storage")
		}
		opts = append(opts, lifecycle.WithBlobStore(objStore))
	}
	engine := lifecycle.NewEngine(store.Documents, store.Users, opts...)

	authSvc := service.NewAuthService(store.Users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)
	userSvc := service.NewUserService(store.Users)
	docSvc := service.NewDocumentService(engine, cipher, log)

	deps := handlers.Deps{
		DB:        store.Pinger,
		Gatherer:  reg,
		Auth:      authSvc,
		Users:     userSvc,
		Documents: docSvc,
		Cookie: handlers.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
			TTL:    cfg.Auth.TokenTTL,
		},
		Log: log,
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		limiter := middleware.NewRateLimiter(rdb, cfg.RateLimit.PerWindow(), cfg.RateLimit.Window, log)
		deps.LoginLimit = limiter.Handler("login")
		deps.DownloadLimit = limiter.Handler("download")
	} else {
		log.Warn("REDIS_ADDR not set; rate limiting disabled")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.BodyLimitMB << 20,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	handlers.RegisterRoutes(app, deps)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("server shutdown failed")
		}
	}()

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{
		"addr":            addr,
		"store_backend":   cfg.StoreBackend,
		"payload_backend": cfg.PayloadBackend,
	}).Info("server starting")

	if err := app.Listen(addr); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("failed to start server")
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.WithError(err).Warn("tracer shutdown failed")
	}
	log.Info("server stopped")
}

// newCipher derives the payload key. Short secrets are zero-padded unless
// ENCRYPTION_REQUIRE_FULL_KEY is set.
func newCipher(cfg config.EncryptionConfig, log logrus.FieldLogger) (*encryption.Cipher, error) {
	secret := []byte(cfg.Key)
	if err := encryption.ValidateSecret(secret); err != nil {
		if cfg.RequireFullKey {
			return nil, err
		}
		log.WithError(err).Warn("encryption key will be zero-padded")
	}
	return encryption.New(encryption.DeriveKey(secret))
}
