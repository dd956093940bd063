// Package logging builds the logrus logger shared by the tracker binaries.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/eddiefleurent/fno_tracker/internal/config"
)

// Rotation limits for file output.
const (
	maxSizeMB  = 20
	maxBackups = 10
	maxAgeDays = 60
)

// New creates a logger from the environment section of the config.
// Unknown levels fall back to info; an unwritable log directory falls back
// to stdout.
func New(env config.EnvironmentConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(env.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if env.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	logger.SetOutput(output(env.LogFile))
	return logger
}

func output(file string) io.Writer {
	if file == "" {
		return os.Stdout
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		return os.Stdout
	}
	// Mirror to stdout so scheduled runs still show up in the service journal.
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	})
}

// ForRun returns an entry tagged with the run identifier and mode.
func ForRun(logger *logrus.Logger, run config.RunContext) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"run_id": run.RunID,
		"mode":   string(run.Mode),
		"date":   run.RunDate.Format("2006-01-02"),
	})
}
