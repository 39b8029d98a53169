package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FieldApp     = "app"
	FieldVersion = "version"

	defaultOutput = "stderr"
)

// Options controls how New builds the logger.
type Options struct {
	JSON  bool
	Debug bool
	// Output is a file path, "stdout" or "stderr". Empty means stderr so command output
	// on stdout stays clean.
	Output string

	App     string
	Version string
}

// New builds the CLI logger. Every entry carries the app and version when they are set.
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.Config{
		Encoding:         encoding(opts.JSON),
		Level:            zap.NewAtomicLevelAt(level(opts.Debug)),
		OutputPaths:      []string{output(opts.Output)},
		ErrorOutputPaths: []string{defaultOutput},
		EncoderConfig:    encoderConfig(),
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return logger.With(StringFields(
		StringField{Key: FieldApp, Value: opts.App},
		StringField{Key: FieldVersion, Value: opts.Version},
	)...), nil
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey: "step",

		LevelKey:    "level",
		EncodeLevel: zapcore.LowercaseLevelEncoder,

		TimeKey:    "time",
		EncodeTime: zapcore.RFC3339TimeEncoder,

		CallerKey:    "caller",
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
}

func encoding(json bool) string {
	if json {
		return "json"
	}
	return "console"
}

func level(debug bool) zapcore.Level {
	if debug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func output(path string) string {
	if path = strings.TrimSpace(path); path != "" {
		return path
	}
	return defaultOutput
}

// TruncateForLog cuts s to limit runes and marks the cut with "...".
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
