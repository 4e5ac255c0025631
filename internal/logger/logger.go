// Package logger builds the process logger: colored console lines plus an optional JSON file.
package logger

import (
	"io"
	"os"

	"github.com/madmis/kuna-bot/internal/console"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options logger settings.
type Options struct {
	Level zapcore.Level
	// File path of the JSON log file, empty disables it.
	File string
	// Console output of human-readable lines, os.Stdout when nil.
	Console io.Writer
}

// New creates a logger writing to the console and, when configured, to a JSON file.
func New(opts Options) (*zap.Logger, error) {
	out := opts.Console
	if out == nil {
		out = os.Stdout
	}

	level := zap.NewAtomicLevelAt(opts.Level)
	cores := []zapcore.Core{console.NewCore(out, level)}

	if opts.File != "" {
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{"stderr"}
		cfg.Sampling = nil

		fileLogger, err := cfg.Build()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open log file %s", opts.File)
		}
		cores = append(cores, fileLogger.Core())
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// ForPair returns the logger of the bot trading pairID.
func ForPair(l *zap.Logger, pairID string) *zap.Logger {
	return l.Named("bot." + pairID).With(zap.String("pair", pairID))
}
