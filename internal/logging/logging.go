// Package logging configures the shared logrus logger. Local runs get a
// colored text console; setting ENVIRONMENT to anything else switches to
// JSON lines for log collection.
package logging

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// New builds the process logger. Format and level come from the
// ENVIRONMENT and LOG_LEVEL environment variables.
func New() *logrus.Entry {
	base := logrus.New()

	env := os.Getenv("ENVIRONMENT")
	if env == "" || env == "local" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
			ForceColors:     true,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	base.SetOutput(os.Stderr)

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		base.SetLevel(logrus.DebugLevel)
	case "warn":
		base.SetLevel(logrus.WarnLevel)
	case "error":
		base.SetLevel(logrus.ErrorLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}

	return logrus.NewEntry(base)
}

// ForRun tags every log line of one pipeline run with its identifier.
func ForRun(log *logrus.Entry, runID, source string) *logrus.Entry {
	if runID == "" {
		runID = uuid.New().String()
	}
	return log.WithFields(logrus.Fields{
		"run_id": runID,
		"source": source,
	})
}
