package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries process-level settings. Every field has a default so the
// server boots with zero configuration on a fresh device.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// DBPath is the path of the SQLite database file.
	DBPath string

	// GeminiModel is the Gemini model used by the extraction oracle.
	// The API key is read by the genai client from GEMINI_API_KEY.
	GeminiModel string

	// BackupBucket is the GCS bucket for ledger snapshots. Empty disables
	// cloud backup.
	BackupBucket string

	// Currency tags every amount. Single-currency product in v1.
	Currency string

	// CountdownTick is the length of one auto-commit countdown tick.
	CountdownTick time.Duration

	// CountdownTicks is the number of ticks before an eligible draft
	// auto-commits.
	CountdownTicks int
}

// Load reads configuration from the environment, after sourcing a .env file
// if one is present. A missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DBPath:         getEnv("DB_PATH", "money-mngr.db"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		BackupBucket:   os.Getenv("BACKUP_BUCKET"),
		Currency:       getEnv("CURRENCY", "INR"),
		CountdownTick:  time.Second,
		CountdownTicks: 3,
	}

	if v := os.Getenv("COUNTDOWN_TICK_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err == nil && ms > 0 {
			cfg.CountdownTick = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
