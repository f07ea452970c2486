package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the exchange.
type Config struct {
	LogLevel    string
	ClientsFile string
	OrdersFile  string
	ResultFile  string
	TradesFile  string // empty disables the trade tape output
	BookDepth   int
	RunTimeout  time.Duration // zero means no limit
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	bookDepth, err := getInt("BOOK_DEPTH", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid BOOK_DEPTH: %w", err)
	}
	if bookDepth < 0 {
		return nil, fmt.Errorf("invalid BOOK_DEPTH: %d, must be >= 0", bookDepth)
	}

	runTimeout, err := getDuration("RUN_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid RUN_TIMEOUT: %w", err)
	}
	if runTimeout < 0 {
		return nil, fmt.Errorf("invalid RUN_TIMEOUT: %v, must be >= 0", runTimeout)
	}

	return &Config{
		LogLevel:    logLevel,
		ClientsFile: getStr("CLIENTS_FILE", "Clients.txt"),
		OrdersFile:  getStr("ORDERS_FILE", "Orders.txt"),
		ResultFile:  getStr("RESULT_FILE", "result.txt"),
		TradesFile:  os.Getenv("TRADES_FILE"),
		BookDepth:   bookDepth,
		RunTimeout:  runTimeout,
	}, nil
}

// Validate re-checks values that may have been overridden after Load.
func (c *Config) Validate() error {
	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level: %q, must be one of: debug, info, warn, error", c.LogLevel)
	}
	if c.BookDepth < 0 {
		return fmt.Errorf("invalid book depth: %d, must be >= 0", c.BookDepth)
	}
	if c.RunTimeout < 0 {
		return fmt.Errorf("invalid run timeout: %v, must be >= 0", c.RunTimeout)
	}
	if c.ClientsFile == "" || c.OrdersFile == "" || c.ResultFile == "" {
		return fmt.Errorf("clients, orders and result files are required")
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
