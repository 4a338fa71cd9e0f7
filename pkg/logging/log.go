// Package logging provides the process-wide structured logger used across
// the scheduler, connection pool, and protocol adapters. The logger is
// usable immediately with its defaults; process wiring reshapes it once
// via Configure, and the rest of the codebase attaches domain context
// through the WithJob/WithDevice/WithSession/WithHost helpers.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger instance.
var Logger = newDefaultLogger()

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(textFormatter())
	return l
}

func textFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
}

// Config controls the process-wide logger. The zero value keeps the
// defaults: info level, text lines on stderr.
type Config struct {
	// Level is a logrus level name ("debug", "info", "warn", "error");
	// empty means info.
	Level string
	// JSON switches to structured JSON lines instead of text.
	JSON bool
	// Output overrides the destination; nil means stderr.
	Output io.Writer
}

// Configure reshapes the process-wide logger once during process wiring.
// An unparseable level name is an error and leaves the logger untouched.
func Configure(cfg Config) error {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		level = parsed
	}

	Logger.SetLevel(level)
	if cfg.Output != nil {
		Logger.SetOutput(cfg.Output)
	}
	if cfg.JSON {
		Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05Z07:00",
		})
	} else {
		Logger.SetFormatter(textFormatter())
	}
	return nil
}

// WithJob returns a logger scoped to a job id.
func WithJob(jobID string) *logrus.Entry {
	return Logger.WithField("job_id", jobID)
}

// WithDevice returns a logger scoped to a device id.
func WithDevice(deviceID string) *logrus.Entry {
	return Logger.WithField("device_id", deviceID)
}

// WithSession returns a logger scoped to a device-communication session.
func WithSession(sessionID string) *logrus.Entry {
	return Logger.WithField("session_id", sessionID)
}

// WithHost returns a logger scoped to a host.
func WithHost(host string) *logrus.Entry {
	return Logger.WithField("host", host)
}
