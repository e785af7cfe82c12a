// Package applog builds the service's zap logger from the `[log]`
// TOML section: console and/or file sinks, each with its own level and
// format, file sink rotated via lumberjack.
package applog

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the decoded `[log]` TOML table.
type Config struct {
	Level   string        `toml:"level"`
	Console ConsoleConfig `toml:"console"`
	File    FileConfig    `toml:"file"`
}

type ConsoleConfig struct {
	Enabled bool   `toml:"enabled"`
	Format  string `toml:"format"` // "console" or "json"
}

type FileConfig struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxAgeDays int    `toml:"max_age_days"`
	MaxBackups int    `toml:"max_backups"`
	Compress   bool   `toml:"compress"`
}

// Default returns the config used when a process has no `[log]`
// section at all: console-only, info level, human-readable.
func Default() Config {
	return Config{
		Level:   "info",
		Console: ConsoleConfig{Enabled: true, Format: "console"},
	}
}

// New builds a *zap.Logger from cfg. Unlike the teacher's logger
// (which exposes a runtime level-switching API for its long-lived
// daemon), this service's level is fixed for the process lifetime —
// there is no admin surface that would ever need to change it, so
// that machinery is left out.
func New(cfg Config) (*zap.Logger, error) {
	level := parseLevel(cfg.Level)

	var cores []zapcore.Core
	if cfg.Console.Enabled {
		cores = append(cores, zapcore.NewCore(encoderFor(cfg.Console.Format), zapcore.Lock(os.Stdout), level))
	}
	if cfg.File.Enabled {
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("applog: file.path must be set when file logging is enabled")
		}
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    orDefault(cfg.File.MaxSizeMB, 100),
			MaxAge:     cfg.File.MaxAgeDays,
			MaxBackups: cfg.File.MaxBackups,
			Compress:   cfg.File.Compress,
		})
		cores = append(cores, zapcore.NewCore(encoderFor("json"), writer, level))
	}
	if len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(encoderFor("console"), zapcore.Lock(os.Stdout), level))
	}

	var core zapcore.Core
	if len(cores) == 1 {
		core = cores[0]
	} else {
		core = zapcore.NewTee(cores...)
	}
	return zap.New(core), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func encoderFor(format string) zapcore.Encoder {
	if format == "json" {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}
