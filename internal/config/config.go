package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultListenAddr = ":8080"
	defaultDBPath     = "switchboard.db"
	defaultWorkers    = 4
	defaultTimeout    = 5 * time.Second

	envListenAddr = "SWITCHBOARD_LISTEN_ADDR"
	envDBPath     = "SWITCHBOARD_DB_PATH"
	envLogLevel   = "SWITCHBOARD_LOG_LEVEL"
	envWorkers    = "SWITCHBOARD_WORKERS"
	envTimeout    = "SWITCHBOARD_TIMEOUT"
	envUpstreams  = "SWITCHBOARD_UPSTREAMS"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string
	LogLevel   slog.Level

	// Workers is the pool size when no upstreams are configured. With
	// upstreams, the pool runs one worker per upstream.
	Workers int

	// Timeout bounds how long a caller waits for its response.
	Timeout time.Duration

	// Upstreams are backend base URLs, one handler each.
	Upstreams []string
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr: defaultListenAddr,
		DBPath:     defaultDBPath,
		LogLevel:   slog.LevelInfo,
		Workers:    defaultWorkers,
		Timeout:    defaultTimeout,
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv(envTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv(envUpstreams); v != "" {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.Upstreams = append(cfg.Upstreams, u)
			}
		}
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
