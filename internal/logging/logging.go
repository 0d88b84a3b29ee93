// Package logging builds the process logger. Output is one JSON object per line
// with "ts", "level" and "msg" keys so request logs, migration logs and tracing
// logs share a single shape.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"briefcase/internal/config"
)

// New returns a logger writing to stdout.
func New(cfg config.LogConfig, loc *time.Location) *logrus.Logger {
	return NewWithWriter(os.Stdout, cfg, loc)
}

// NewWithWriter returns a logger writing to w. Timestamps are rendered in loc.
func NewWithWriter(w io.Writer, cfg config.LogConfig, loc *time.Location) *logrus.Logger {
	if loc == nil {
		loc = time.UTC
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(parseLevel(cfg.Level))

	var inner logrus.Formatter
	if strings.EqualFold(cfg.Format, "text") {
		inner = &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		}
	} else {
		inner = &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "ts",
			},
		}
	}
	log.SetFormatter(&locationFormatter{loc: loc, inner: inner})

	return log
}

// Component is a shorthand for the per-package child logger.
func Component(log logrus.FieldLogger, name string) *logrus.Entry {
	if log == nil {
		log = Discard()
	}
	return log.WithField("component", name)
}

// Discard returns a logger that drops everything; handy as a nil default.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func parseLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

type locationFormatter struct {
	loc   *time.Location
	inner logrus.Formatter
}

func (f *locationFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Time = e.Time.In(f.loc)
	return f.inner.Format(e)
}
