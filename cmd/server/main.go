package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/regional-voices/backend/internal/router"
	"github.com/anonto42/regional-voices/backend/internal/services"
	"github.com/anonto42/regional-voices/backend/pkg/config"
	"github.com/anonto42/regional-voices/backend/pkg/firebase"
	"github.com/anonto42/regional-voices/backend/pkg/logger"
	"github.com/anonto42/regional-voices/backend/pkg/media"
	"github.com/anonto42/regional-voices/backend/pkg/messaging"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.AppName, cfg.Env)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres, log); err != nil {
		log.Fatalf("Failed to migrate PostgreSQL: %v", err)
	}

	store, closeStore, err := newMediaStore(ctx, cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}
	defer closeStore()

	fb, err := firebase.NewVerifier(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}
	var verifier services.TokenVerifier
	if fb.Enabled() {
		verifier = fb
		log.Info("Firebase sign-in enabled.")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Redis unreachable, auth rate limiting fails open")
		}
	}

	var publisher messaging.Publisher = messaging.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		rabbit, err := messaging.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer rabbit.Close()
		publisher = rabbit
		log.Info("Notification events published to RabbitMQ.")
	}

	sqlDB, err := db.Postgres.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB from GORM: %v", err)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	router.SetupMiddleware(e, cfg, log)
	err = router.SetupRoutes(e, router.Deps{
		Config:    cfg,
		Repos:     router.PostgresRepositories(db.Postgres),
		Health:    sqlDB,
		Media:     store,
		Firebase:  verifier,
		Redis:     rdb,
		Publisher: publisher,
		Log:       log,
	})
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	metricsSrv := startMetricsServer(cfg.MetricsPort, log)

	go func() {
		log.Infof("Server starting on :%s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Metrics server forced to shutdown")
	}
	log.Info("Server exited properly")
}

// newMediaStore picks the configured media backend. The returned func
// releases whatever client the backend holds.
func newMediaStore(ctx context.Context, cfg *config.Config, db *config.DB) (media.Store, func(), error) {
	switch cfg.MediaBackend {
	case config.MediaBackendGridFS:
		if db.Mongo == nil {
			return nil, nil, fmt.Errorf("gridfs backend needs a MongoDB connection")
		}
		store, err := media.NewGridFSStore(db.Mongo.Database(cfg.MongoDatabase))
		return store, func() {}, err
	case config.MediaBackendGCS:
		client, err := media.NewGCSClient(ctx, cfg.GCSCredentialsPath)
		if err != nil {
			return nil, nil, err
		}
		return media.NewGCSStore(client, cfg.GCSBucket), func() { _ = client.Close() }, nil
	default:
		store, err := media.NewLocalStore(cfg.MediaRoot)
		return store, func() {}, err
	}
}

func startMetricsServer(port string, log *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("Metrics server starting on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server error")
		}
	}()
	return srv
}
