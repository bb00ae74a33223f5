package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Firebase FirebaseConfig
	Cache    CacheConfig
	Sync     SyncConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

// CacheConfig drives the gateway worker: Version names the cache generation,
// OriginBaseURL is the upstream everything is fetched from, PrecacheAssets is
// the static manifest populated on install.
type CacheConfig struct {
	Name           string
	Version        string
	OriginBaseURL  string
	PrecacheAssets []string
}

type SyncConfig struct {
	PresenceInterval time.Duration
	DrainBatchSize   int
}

func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:         env("PORT", "8099"),
			Env:          env("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             env("DB_DSN", "chatlobby:chatlobby@tcp(localhost:3306)/chatlobby?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		Redis: RedisConfig{
			Addr:     env("REDIS_ADDR", "localhost:6379"),
			Password: env("REDIS_PASSWORD", ""),
			DB:       envInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			AccessSecret:  env("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: env("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "chatlobby",
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: env("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		},
		Cache: CacheConfig{
			Name:          "whatsapp-lobby",
			Version:       "v2",
			OriginBaseURL: env("ORIGIN_BASE_URL", "http://localhost:8080"),
			PrecacheAssets: []string{
				"/",
				"/index.html",
				"/app.css",
				"/dark.css",
				"/splash.css",
				"/app.js",
				"/components.js",
				"/search.js",
				"/gestures.js",
				"/status.js",
				"/calls.js",
				"/notifications.js",
				"/manifest.json",
				"/icons/icon-192.png",
				"/icons/icon-512.png",
				"/icons/icon-180.png",
				"/icons/icon-mask.svg",
			},
		},
		Sync: SyncConfig{
			PresenceInterval: 5 * time.Minute,
			DrainBatchSize:   50,
		},
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
