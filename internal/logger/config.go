package logger

import "fmt"

// Config represents logging configuration
type Config struct {
	File       string // optional JSON log file, rotated by size
	MaxSize    int    // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	Level      string // debug, info, warn, error
}

// DefaultConfig logs warnings and errors to the console only.
func DefaultConfig() *Config {
	return &Config{
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Level:      "warn",
	}
}

// Validate validates logging configuration
func (cfg *Config) Validate() error {
	if cfg.File != "" && cfg.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}
	return nil
}
