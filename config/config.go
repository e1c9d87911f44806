package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the process configuration.
type Config struct {
	Token         string
	ApplicationID string
	GuildID       string
	DatabaseURL   string
	DatabaseName  string
	Environment   string
	LogLevel      string
	HealthAddr    string
}

// Load reads envFile if it exists, then the environment. A missing required value
// is an error naming every missing variable.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Token:         firstEnv("TOKEN", "DISCORD_TOKEN"),
		ApplicationID: firstEnv("CLIENT_ID", "APPLICATION_ID"),
		GuildID:       getEnv("GUILD_ID", ""),
		DatabaseURL:   firstEnv("DATABASE_URL", "MONGO_URI"),
		DatabaseName:  getEnv("DATABASE_NAME", "birthdays"),
		Environment:   getEnv("APP_ENV", "production"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		HealthAddr:    getEnv("HEALTH_ADDR", ""),
	}

	var missing []string
	if cfg.Token == "" {
		missing = append(missing, "TOKEN")
	}
	if cfg.ApplicationID == "" {
		missing = append(missing, "CLIENT_ID")
	}
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// Development reports whether the process runs in a development environment.
func (c Config) Development() bool {
	return strings.EqualFold(c.Environment, "development")
}

func getEnv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if val := getEnv(key, ""); val != "" {
			return val
		}
	}
	return ""
}
