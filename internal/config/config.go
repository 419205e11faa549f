package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey  string
	DatabasePath  string
	HTTPPort      string
	ClientOrigin  string
	JWTSecret     string
	TokenTTL      time.Duration
	PurgeSchedule string
}

// Load reads configuration from a .env file (if present) and the environment.
// GEMINI_API_KEY and JWT_SECRET have no usable defaults and must be set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := Config{
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		DatabasePath:  getEnv("DATABASE_URL", "mindrift.db"),
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		ClientOrigin:  getEnv("CLIENT_ORIGIN", "http://localhost:3000"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenTTL:      getEnvAsDuration("JWT_TOKEN_TTL", 2*time.Hour),
		PurgeSchedule: getEnv("MESSAGE_PURGE_SCHEDULE", "0 4 * * *"),
	}

	if cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
