package logger

import (
	"log/slog"
	"strings"
)

// Config controls handler selection and the base attributes stamped on every
// log line.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Format      string // "json", "text"
	ServiceName string
	Version     string
	Environment string
	AddSource   bool
}

// ProductionConfig returns JSON logging at info level.
func ProductionConfig() Config {
	return Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "craftmastery",
		Version:     "1.0.0",
		Environment: "prod",
	}
}

// DevelopmentConfig returns text logging at debug level with source
// locations.
func DevelopmentConfig() Config {
	return Config{
		Level:       "debug",
		Format:      "text",
		ServiceName: "craftmastery",
		Version:     "dev",
		Environment: "dev",
		AddSource:   true,
	}
}

// LogLevel maps the configured level string to a slog.Level, defaulting to
// info on unknown values.
func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsJSON reports whether the JSON handler should be used.
func (c Config) IsJSON() bool {
	return strings.ToLower(c.Format) == "json"
}

// BaseAttributes returns the attributes attached to every record.
func (c Config) BaseAttributes() []slog.Attr {
	return []slog.Attr{
		slog.String("service", c.ServiceName),
		slog.String("version", c.Version),
		slog.String("environment", c.Environment),
	}
}
