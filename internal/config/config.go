package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DBDriver      string
	DatabaseURL   string
	SubmitTimeout time.Duration
	PollInterval  time.Duration
	IdleTTL       time.Duration
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	cfg := &Config{
		Port:        GetEnv("PORT", "8080"),
		DBDriver:    GetEnv("DB_DRIVER", "sqlite"),
		DatabaseURL: GetEnv("DATABASE_URL", "timetable.db"),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"SUBMIT_TIMEOUT", "10s", &cfg.SubmitTimeout},
		{"CATALOG_POLL_INTERVAL", "1m", &cfg.PollInterval},
		{"PLANNER_IDLE_TTL", "1h", &cfg.IdleTTL},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(GetEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}

	switch cfg.DBDriver {
	case "sqlite", "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.DBDriver)
	}

	return cfg, nil
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}
