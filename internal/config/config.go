package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig carries all environment-driven settings.
type AppConfig struct {
	OpenWeatherAPIKey string

	// Port the HTTP server listens on.
	Port string

	// DBPath is the SQLite database file; empty selects the in-memory store.
	DBPath string

	// ExportDir is where exported record files are written.
	ExportDir string

	// HTTPTimeout bounds outbound provider calls.
	HTTPTimeout time.Duration

	// TrackedLocations are refreshed periodically when non-empty.
	TrackedLocations []string

	// RefreshInterval controls how often tracked locations are refreshed.
	RefreshInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.DBPath = getenvDefault("DB_PATH", "weather_history.db")
	cfg.ExportDir = getenvDefault("EXPORT_DIR", "exports")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// Refresh interval: default 15 minutes.
	intervalStr := getenvDefault("REFRESH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval

	cfg.TrackedLocations = splitList(os.Getenv("TRACKED_LOCATIONS"))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
