package app

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/dpp-pk/constructor-backend/internal/platform/envutil"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port        string
	Environment string
	Version     string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SecureCookies   bool

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RenderCacheTTL time.Duration
	WizardTTL      time.Duration

	AllowedOrigins   []string
	SessionPurgeTick time.Duration
}

// LoadDotEnv reads .env into the process environment when the file exists.
func LoadDotEnv(log *logger.Logger) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("could not read .env", "error", err)
	}
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", defaultJWTSecret),
		AccessTokenTTL:  envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: envutil.Seconds("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		SecureCookies:   envutil.Bool("SECURE_COOKIES", false),

		RedisAddr:      envutil.String("REDIS_ADDR", ""),
		RedisPassword:  envutil.String("REDIS_PASSWORD", ""),
		RedisDB:        envutil.Int("REDIS_DB", 0),
		RenderCacheTTL: envutil.Seconds("RENDER_CACHE_TTL", 5*time.Minute),
		WizardTTL:      envutil.Seconds("WIZARD_SESSION_TTL", 24*time.Hour),

		AllowedOrigins:   envutil.List("CORS_ALLOWED_ORIGINS"),
		SessionPurgeTick: envutil.Seconds("SESSION_PURGE_INTERVAL", time.Hour),
	}
	if cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY is not set, using the development default")
	}
	return cfg
}
