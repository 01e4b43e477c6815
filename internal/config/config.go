package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DBDriver         string
	DBDSN            string
	StatementTimeout time.Duration

	ServerPort    string
	SessionSecret string
	SessionSecure bool
	CORSOrigins   []string

	AdminUsername string
	AdminPassword string

	LogLevel  string
	LogFormat string

	AuditQueryCap int
}

// Load reads configuration from the environment, after merging a local .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_STATEMENT_TIMEOUT", "5s")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SESSION_SECURE", false)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("AUDIT_QUERY_CAP", 1000)

	cfg := &Config{
		DBDriver:         strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:            v.GetString("DB_DSN"),
		StatementTimeout: v.GetDuration("DB_STATEMENT_TIMEOUT"),
		ServerPort:       v.GetString("SERVER_PORT"),
		SessionSecret:    v.GetString("SESSION_SECRET"),
		SessionSecure:    v.GetBool("SESSION_SECURE"),
		CORSOrigins:      splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		AdminUsername:    v.GetString("ADMIN_USERNAME"),
		AdminPassword:    v.GetString("ADMIN_PASSWORD"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
		AuditQueryCap:    v.GetInt("AUDIT_QUERY_CAP"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return errors.New("DB_DRIVER must be postgres or sqlite")
	}
	if c.DBDSN == "" {
		return errors.New("DB_DSN is not set")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is not set")
	}
	if c.StatementTimeout <= 0 {
		return errors.New("DB_STATEMENT_TIMEOUT must be positive")
	}
	if c.AuditQueryCap <= 0 || c.AuditQueryCap > 1000 {
		c.AuditQueryCap = 1000
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
