// Package logging configures the application logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to path. The returned closer releases the file.
func New(path string) (*logrus.Logger, io.Closer, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	l.SetLevel(logrus.InfoLevel)
	if lvl, ok := os.LookupEnv("ANIMA_LOG_LEVEL"); ok {
		if parsed, err := logrus.ParseLevel(lvl); err == nil {
			l.SetLevel(parsed)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.SetOutput(os.Stderr)
		return l, io.NopCloser(nil), fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		l.SetOutput(os.Stderr)
		return l, io.NopCloser(nil), fmt.Errorf("failed to open log file: %w", err)
	}
	l.SetOutput(f)
	return l, f, nil
}

// Silence discards output of a logger that writes to a terminal the UI owns.
func Silence(l *logrus.Logger) {
	if l.Out == os.Stderr || l.Out == os.Stdout {
		l.SetOutput(io.Discard)
	}
}
