package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Feed policies for the home page
const (
	FeedPolicyPersonal = "personal"
	FeedPolicyGlobal   = "global"
)

// Media backends
const (
	MediaBackendLocal  = "local"
	MediaBackendGridFS = "gridfs"
	MediaBackendGCS    = "gcs"
)

type Config struct {
	AppName     string
	Port        string
	Env         string
	MetricsPort string

	PostgresConnStr string
	MongoURI        string
	MongoDatabase   string

	FirebaseCredentialsPath string

	SessionSecret       string
	SessionCookieName   string
	SessionTTL          time.Duration
	SessionCookieSecure bool

	// FeedPolicy picks what "/" serves: the personalized feed or the global one
	FeedPolicy string

	MediaBackend       string
	MediaRoot          string
	MediaMaxBytes      int64
	GCSBucket          string
	GCSCredentialsPath string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	AuthRateLimit  int
	AuthRateWindow time.Duration
	RabbitMQURL    string
	RabbitMQQueue  string
	ContentScript  string
}

// Load reads .env (if present) and the environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		AppName:     getEnv("APP_NAME", "regional-voices"),
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),

		PostgresConnStr: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "regionalvoices"),

		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),

		SessionSecret:       getEnv("SESSION_SECRET", "dev-session-secret"),
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "sessionid"),
		SessionTTL:          getDuration("SESSION_TTL", 14*24*time.Hour),
		SessionCookieSecure: getBool("SESSION_COOKIE_SECURE", false),

		FeedPolicy: getEnv("FEED_POLICY", FeedPolicyPersonal),

		MediaBackend:       getEnv("MEDIA_BACKEND", MediaBackendLocal),
		MediaRoot:          getEnv("MEDIA_ROOT", "media"),
		MediaMaxBytes:      int64(getInt("MEDIA_MAX_BYTES", 50<<20)),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsPath: getEnv("GCS_CREDENTIALS_JSON", ""),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getInt("REDIS_DB", 0),
		AuthRateLimit:  getInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow: getDuration("AUTH_RATE_WINDOW", time.Minute),
		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		RabbitMQQueue:  getEnv("RABBITMQ_NOTIFICATION_QUEUE", "notifications"),
		ContentScript:  getEnv("CONTENT_SCRIPT", ""),
	}
}

// Validate rejects combinations the server cannot start with
func (c *Config) Validate() error {
	if c.PostgresConnStr == "" {
		return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
	}
	switch c.FeedPolicy {
	case FeedPolicyPersonal, FeedPolicyGlobal:
	default:
		return fmt.Errorf("unknown FEED_POLICY %q", c.FeedPolicy)
	}
	switch c.MediaBackend {
	case MediaBackendLocal:
	case MediaBackendGridFS:
		if c.MongoURI == "" {
			return fmt.Errorf("MEDIA_BACKEND=gridfs requires MONGO_URI")
		}
	case MediaBackendGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("MEDIA_BACKEND=gcs requires GCS_BUCKET")
		}
	default:
		return fmt.Errorf("unknown MEDIA_BACKEND %q", c.MediaBackend)
	}
	switch c.ContentScript {
	case "", "telugu":
	default:
		return fmt.Errorf("unknown CONTENT_SCRIPT %q", c.ContentScript)
	}
	return nil
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %v, using default %v", key, err, defaultValue)
			return defaultValue
		}
		return b
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid int for %s: %v, using default %d", key, err, defaultValue)
			return defaultValue
		}
		return i
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using default %v", key, err, defaultValue)
			return defaultValue
		}
		return d
	}
	return defaultValue
}
