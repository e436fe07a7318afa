// Package logger exposes a shared structured logger for the whole service.
// Output is JSON so log lines are machine-parseable in production; the level
// is controlled by the LOG_LEVEL environment variable.
package logger

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

var logger = log.New()

func init() {
	logger.Out = os.Stdout
	logger.Formatter = &log.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	}
	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
}

// L returns the shared logger instance.
func L() *log.Logger { return logger }

// WithField is shorthand for L().WithField.
func WithField(key string, value interface{}) *log.Entry {
	return logger.WithField(key, value)
}

// WithFields is shorthand for L().WithFields.
func WithFields(fields log.Fields) *log.Entry {
	return logger.WithFields(fields)
}
