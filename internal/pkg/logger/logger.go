package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wonny/quotecatalog/internal/pkg/config"
)

// Config holds logger configuration
type Config struct {
	Level          string // debug, info, warn, error
	Format         string // json, pretty
	FileEnabled    bool
	FilePath       string // logs directory path
	RotationSize   int    // MB
	RetentionDays  int
	ServiceName    string
	ServiceVersion string
}

// FromConfig builds a logger Config from the logging section of the app config
func FromConfig(cfg config.LoggingConfig, serviceName, serviceVersion string) Config {
	return Config{
		Level:          cfg.Level,
		Format:         cfg.Format,
		FileEnabled:    cfg.FileEnabled,
		FilePath:       cfg.FilePath,
		RotationSize:   cfg.RotationSize,
		RetentionDays:  cfg.RetentionDays,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
	}
}

// Init initializes the global logger
func Init(cfg Config) error {
	logger, err := New(cfg, os.Stderr)
	if err != nil {
		return err
	}
	log.Logger = logger

	log.Info().
		Str("level", cfg.Level).
		Str("format", cfg.Format).
		Bool("file_enabled", cfg.FileEnabled).
		Msg("Logger initialized")

	return nil
}

// New builds a logger writing to console and, if enabled, to rotated files.
// It also sets the global level.
func New(cfg Config, console io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var writers []io.Writer
	if cfg.Format == "pretty" {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: "15:04:05",
		})
	} else {
		writers = append(writers, console)
	}

	if cfg.FileEnabled {
		if err := os.MkdirAll(cfg.FilePath, 0755); err != nil {
			return zerolog.Nop(), fmt.Errorf("failed to create log directory: %w", err)
		}
		writers = append(writers, rotated(cfg, "app.log", 10))
		writers = append(writers, &errorOnly{w: rotated(cfg, "error.log", 10)})
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("version", cfg.ServiceVersion).
		Logger(), nil
}

// NewQueryLogger creates a logger for database queries
func NewQueryLogger(cfg Config) zerolog.Logger {
	if !cfg.FileEnabled || cfg.FilePath == "" {
		return log.Logger.With().Str("type", "query").Logger()
	}

	if err := os.MkdirAll(cfg.FilePath, 0755); err != nil {
		log.Warn().Err(err).Msg("Failed to create query log directory, using default logger")
		return log.Logger
	}

	return zerolog.New(rotated(cfg, "query.log", 5)).With().
		Timestamp().
		Str("type", "query").
		Logger()
}

func rotated(cfg Config, name string, backups int) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.FilePath, name),
		MaxSize:    cfg.RotationSize,
		MaxAge:     cfg.RetentionDays,
		MaxBackups: backups,
		Compress:   true,
	}
}

// errorOnly forwards ERROR and above
type errorOnly struct {
	w io.Writer
}

func (e *errorOnly) Write(p []byte) (int, error) {
	return len(p), nil
}

func (e *errorOnly) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel {
		return len(p), nil
	}
	return e.w.Write(p)
}
