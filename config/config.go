package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every process-level setting. It is built once at startup
// and passed into constructors; nothing below main reads the environment.
type Config struct {
	Port           string
	MongoURI       string
	MongoDatabase  string
	JWTSecret      string
	AllowedOrigins []string

	// Redis is optional; the issue rate limiter is disabled when
	// RedisAddr is empty.
	RedisAddr       string
	RedisPassword   string
	IssueDailyLimit int

	// Signup policy: when set, registering with the matching role
	// requires an email ending in the given suffix.
	AdminEmailDomain     string
	VolunteerEmailDomain string
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:                 getEnv("PORT", "8080"),
		MongoURI:             os.Getenv("MONGODB_URI"),
		MongoDatabase:        getEnv("MONGODB_DATABASE", "civix"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		RedisAddr:            os.Getenv("REDIS_ADDRESS"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		AdminEmailDomain:     os.Getenv("ADMIN_EMAIL_DOMAIN"),
		VolunteerEmailDomain: os.Getenv("VOLUNTEER_EMAIL_DOMAIN"),
	}

	for _, origin := range strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	cfg.IssueDailyLimit = 5
	if raw := os.Getenv("ISSUE_DAILY_LIMIT"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return Config{}, fmt.Errorf("invalid ISSUE_DAILY_LIMIT %q", raw)
		}
		cfg.IssueDailyLimit = limit
	}

	if cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGODB_URI environment variable is not set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
