package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/anonto42/regional-voices/backend/internal/handlers"
	"github.com/anonto42/regional-voices/backend/internal/middleware"
	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/internal/repositories"
	"github.com/anonto42/regional-voices/backend/internal/services"
	"github.com/anonto42/regional-voices/backend/internal/views"
	"github.com/anonto42/regional-voices/backend/pkg/config"
	"github.com/anonto42/regional-voices/backend/pkg/media"
	"github.com/anonto42/regional-voices/backend/pkg/messaging"
	"github.com/anonto42/regional-voices/backend/pkg/session"
	"github.com/anonto42/regional-voices/backend/validators"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Repositories groups the stores the services are built on
type Repositories struct {
	Users         repositories.UserRepository
	Sessions      repositories.SessionRepository
	Regions       repositories.RegionRepository
	Contributions repositories.ContributionRepository
	Comments      repositories.CommentRepository
	Likes         repositories.LikeRepository
	Follows       repositories.FollowRepository
	Notifications repositories.NotificationRepository
}

// PostgresRepositories builds every repository on one gorm connection
func PostgresRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:         repositories.NewPostgresUserRepository(db),
		Sessions:      repositories.NewPostgresSessionRepository(db),
		Regions:       repositories.NewPostgresRegionRepository(db),
		Contributions: repositories.NewPostgresContributionRepository(db),
		Comments:      repositories.NewPostgresCommentRepository(db),
		Likes:         repositories.NewPostgresLikeRepository(db),
		Follows:       repositories.NewPostgresFollowRepository(db),
		Notifications: repositories.NewPostgresNotificationRepository(db),
	}
}

// Deps are the collaborators SetupRoutes wires together. Firebase, Redis and
// Publisher are optional.
type Deps struct {
	Config    *config.Config
	Repos     Repositories
	Health    handlers.Pinger
	Media     media.Store
	Firebase  services.TokenVerifier
	Redis     *redis.Client
	Publisher messaging.Publisher
	Log       *logrus.Logger
}

// Migrate creates or updates the relational schema
func Migrate(db *gorm.DB, log *logrus.Logger) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Region{},
		&models.Contribution{},
		&models.Comment{},
		&models.Like{},
		&models.Follow{},
		&models.Notification{},
		&models.Session{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("PostgreSQL auto-migrations completed for all models.")
	return nil
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config, log *logrus.Logger) {
	e.Pre(eMiddleware.RemoveTrailingSlash())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.RequestIDWithConfig(eMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics())
	e.Use(eMiddleware.CORS())
	e.Use(eMiddleware.BodyLimit(bodyLimit(cfg.MediaMaxBytes)))
	e.Use(eMiddleware.CSRFWithConfig(eMiddleware.CSRFConfig{
		TokenLookup:    "form:csrfmiddlewaretoken,header:X-CSRFToken",
		CookieName:     "csrftoken",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.SessionCookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/health" || strings.HasPrefix(p, "/media/")
		},
	}))
	log.Info("Global middleware configured.")
}

// bodyLimit leaves room for three uploads plus the form fields
func bodyLimit(maxMedia int64) string {
	if maxMedia <= 0 {
		maxMedia = 50 << 20
	}
	return fmt.Sprintf("%dK", (3*maxMedia)/1024+1024)
}

// SetupRoutes builds services and handlers and registers every route
func SetupRoutes(e *echo.Echo, deps Deps) error {
	cfg, log := deps.Config, deps.Log
	repos := deps.Repos

	renderer, err := views.New(deps.Media)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	e.Renderer = renderer
	validator := validators.NewValidator()
	e.Validator = validator

	// --- Services ---
	identity := services.NewIdentityService(repos.Users, repos.Sessions, validator, cfg.SessionTTL, log)
	if deps.Firebase != nil {
		identity.WithTokenVerifier(deps.Firebase)
	}
	content := services.NewContentService(repos.Contributions, repos.Regions, deps.Media, validator, cfg.ContentScript, log)
	feed := services.NewFeedService(repos.Contributions, repos.Likes, repos.Follows, repos.Users, cfg.FeedPolicy)
	social := services.NewSocialService(services.SocialRepositories{
		Contributions: repos.Contributions,
		Likes:         repos.Likes,
		Comments:      repos.Comments,
		Follows:       repos.Follows,
		Users:         repos.Users,
		Notifications: repos.Notifications,
	}, deps.Publisher, log)
	dashboard := services.NewDashboardService(repos.Users, repos.Sessions, repos.Contributions, repos.Regions)

	// Sessions are loaded for every request; groups below decide who may pass
	sessionAuth := middleware.NewSessionAuth(identity, session.NewCodec(cfg.SessionSecret), cfg.SessionCookieName, cfg.SessionCookieSecure, log)
	e.Use(sessionAuth.Load())

	healthHandler := handlers.NewHealthHandler(cfg.AppName, deps.Health)
	e.GET("/health", healthHandler.HealthCheck)

	// --- Public routes ---
	public := e.Group("")
	limiter := middleware.RateLimit(deps.Redis, cfg.AuthRateLimit, cfg.AuthRateWindow, middleware.KeyByIPAndPath(), log)
	authHandler := handlers.NewAuthHandler(identity, sessionAuth, log)
	authHandler.RegisterAuthRoutes(public, limiter)
	log.Info("Auth routes configured.")

	userHandler := handlers.NewUserHandler(identity, feed)
	userHandler.RegisterPublicRoutes(public)
	handlers.NewMediaHandler(deps.Media).RegisterMediaRoutes(public)
	log.Info("Public profile and media routes configured.")

	// --- Protected routes (require a session) ---
	app := e.Group("", middleware.RequireLogin())

	handlers.NewFeedHandler(feed).RegisterFeedRoutes(app)
	log.Info("Feed routes configured.")

	handlers.NewPostHandler(content).RegisterPostRoutes(app)
	log.Info("Post routes configured.")

	userHandler.RegisterProfileRoutes(app)
	log.Info("User profile routes configured.")

	handlers.NewLikeHandler(social).RegisterLikeRoutes(app)
	handlers.NewCommentHandler(social).RegisterCommentRoutes(app)
	handlers.NewFollowHandler(social).RegisterFollowRoutes(app)
	log.Info("Like, comment and follow routes configured.")

	handlers.NewNotificationHandler(social).RegisterNotificationRoutes(app)
	log.Info("Notification routes configured.")

	// --- Staff routes ---
	admin := e.Group("/admin", middleware.RequireStaff())
	handlers.NewDashboardHandler(dashboard).RegisterDashboardRoutes(admin)
	log.Info("Dashboard routes configured.")

	log.Info("All routes configured.")
	return nil
}
