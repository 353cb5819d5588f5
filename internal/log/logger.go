package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"firestige.xyz/dissect/internal/config"
)

const (
	defaultPattern    = "%time [%level] %msg %field%n"
	defaultTimeLayout = "2006-01-02 15:04:05.000"
)

// Init builds the process logger from configuration and installs it.
func Init(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	l := logrus.New()
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: defaultTimeLayout})
	case "text":
		pattern := cfg.Pattern
		if pattern == "" {
			pattern = defaultPattern
		}
		l.SetFormatter(&formatter{pattern: pattern, time: defaultTimeLayout})
	default:
		return fmt.Errorf("unsupported log format: %s (must be json or text)", cfg.Format)
	}

	out := sinks{os.Stderr}
	if cfg.File.Enabled {
		if cfg.File.Path == "" {
			return fmt.Errorf("file output requires 'path' field")
		}
		out = append(out, rotatingFile(cfg.File))
	}
	l.SetOutput(out)

	SetLogger(wrap(logrus.NewEntry(l)))
	return nil
}

// NewWriterLogger returns a logger writing plain pattern lines to w.
// Tests use it to capture output.
func NewWriterLogger(w io.Writer, level string) Logger {
	l := logrus.New()
	l.SetOutput(w)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetFormatter(&formatter{pattern: defaultPattern, time: defaultTimeLayout})
	return wrap(logrus.NewEntry(l))
}
