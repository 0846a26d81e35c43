package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LevelTrace LogLevel = "trace"
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
	LevelFatal LogLevel = "fatal"
	LevelPanic LogLevel = "panic"
)

// Config holds logging configuration
type Config struct {
	Level      LogLevel `yaml:"level" json:"level"`
	Pretty     bool     `yaml:"pretty" json:"pretty"`
	TimeFormat string   `yaml:"time_format" json:"time_format"`

	// File output, rotated with lumberjack
	EnableFile  bool   `yaml:"enable_file" json:"enable_file"`
	LogDir      string `yaml:"log_dir" json:"log_dir"`
	LogFileName string `yaml:"log_file" json:"log_file"`
	MaxSizeMB   int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays  int    `yaml:"max_age_days" json:"max_age_days"`
}

// DefaultConfig returns a default logging configuration
func DefaultConfig() Config {
	return Config{
		Level:       LevelInfo,
		Pretty:      true,
		TimeFormat:  time.RFC3339,
		EnableFile:  false,
		LogDir:      "logs",
		LogFileName: "fibtrader.log",
		MaxSizeMB:   50,
		MaxBackups:  5,
		MaxAgeDays:  30,
	}
}

// Initialize sets up the global logger with the given configuration
func Initialize(config Config) {
	switch config.Level {
	case LevelTrace:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case LevelDebug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case LevelInfo:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case LevelWarn:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case LevelError:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case LevelFatal:
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case LevelPanic:
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	zerolog.TimeFieldFormat = config.TimeFormat

	var console io.Writer = os.Stderr
	if config.Pretty {
		console = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	writers := []io.Writer{console}
	if config.EnableFile {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(config.LogDir, config.LogFileName),
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAgeDays,
			Compress:   true,
		})
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
}

// GetLogger returns a logger with the specified component name
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// GetSubLogger returns a logger with additional context
func GetSubLogger(parent zerolog.Logger, subComponent string) zerolog.Logger {
	return parent.With().Str("subcomponent", subComponent).Logger()
}
