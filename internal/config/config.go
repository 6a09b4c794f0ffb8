// internal/config/config.go
//
// Runtime configuration. Values come, in increasing precedence, from defaults,
// an optional gamezone.{yaml,toml,json} file, the environment (after loading
// .env) and command-line flags. Environment names are the flag names
// upper-cased with dashes as underscores: LOG_LEVEL, SUMMARY_DELAY, ...

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds every setting the server and CLI read.
type Config struct {
	Addr         string
	LogLevel     string
	LogFormat    string
	Lang         string
	Store        string
	DBPath       string
	RedisURL     string
	SessionTTL   time.Duration
	TokenTTL     time.Duration
	SummaryDelay time.Duration
	JWTSecret    string
	ClientOrigin string
	Catalog      string
}

const devSecret = "dev_secret_change_me"

// RegisterFlags declares the shared flags on f.
func RegisterFlags(f *pflag.FlagSet) {
	f.StringP("addr", "a", ":5175", "HTTP listen address")
	f.String("port", "", "HTTP port (overrides the port of --addr)")
	f.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	f.String("log-format", "json", "Log format (json, console)")
	f.StringP("lang", "l", "en", "Default UI language")
	f.String("store", StoreMemory, "Session store (memory, sqlite, redis)")
	f.String("db", "./data/gamezone.db", "SQLite database path (store=sqlite)")
	f.String("redis-url", "redis://localhost:6379/0", "Redis URL (store=redis)")
	f.Duration("session-ttl", 2*time.Hour, "Idle time after which a session is dropped")
	f.Duration("token-ttl", 12*time.Hour, "Lifetime of a session token; renewed on every authorized request")
	f.Duration("summary-delay", 400*time.Millisecond, "Delay between the last answer and the summary")
	f.String("jwt-secret", devSecret, "Secret used to sign session tokens")
	f.String("client-origin", "http://localhost:5173", "Origin allowed by CORS")
	f.String("catalog", "", "Puzzle catalog JSON file (default: embedded catalog)")
}

// Load resolves configuration for the flags in f.
func Load(f *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if err := v.BindPFlags(f); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("catalog", "CATALOG", "HACKER_CATALOG_FILE")

	v.SetConfigName("gamezone")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/gamezone")
	v.AddConfigPath("/etc/gamezone")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		log.Info().Str("path", v.ConfigFileUsed()).Msg("loaded config file")
	}

	c := &Config{
		Addr:         v.GetString("addr"),
		LogLevel:     v.GetString("log-level"),
		LogFormat:    v.GetString("log-format"),
		Lang:         v.GetString("lang"),
		Store:        strings.ToLower(v.GetString("store")),
		DBPath:       v.GetString("db"),
		RedisURL:     v.GetString("redis-url"),
		SessionTTL:   v.GetDuration("session-ttl"),
		TokenTTL:     v.GetDuration("token-ttl"),
		SummaryDelay: v.GetDuration("summary-delay"),
		JWTSecret:    v.GetString("jwt-secret"),
		ClientOrigin: v.GetString("client-origin"),
		Catalog:      v.GetString("catalog"),
	}
	if port := v.GetString("port"); port != "" {
		c.Addr = ":" + port
	}
	return c, c.Validate()
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Store == StoreSQLite && c.DBPath == "" {
		return errors.New("store=sqlite needs --db")
	}
	if c.Store == StoreRedis && c.RedisURL == "" {
		return errors.New("store=redis needs --redis-url")
	}
	if c.SummaryDelay < 0 {
		return errors.New("summary-delay must not be negative")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token-ttl must be positive")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt-secret must not be empty")
	}
	return nil
}

// DevSecret reports whether the built-in development secret is in use.
func (c *Config) DevSecret() bool { return c.JWTSecret == devSecret }
