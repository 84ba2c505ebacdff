// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds the runtime settings for the journal server.
type Config struct {
	Port   string
	DBPath string
	Env    string
	Debug  bool
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment only")
	}

	cfg := Config{
		Port:   getEnv("PORT", "8080"),
		DBPath: getEnv("DB_PATH", "journal.db"),
		Env:    getEnv("ENV", "development"),
		Debug:  os.Getenv("DEBUG") == "true",
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
