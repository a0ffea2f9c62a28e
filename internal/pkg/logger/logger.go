// internal/pkg/logger/logger.go
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
)

// New builds the application logger from the logging config
func New(cfg *config.Config) *logrus.Logger {
	return NewWithOutput(cfg, os.Stdout)
}

// NewWithOutput builds a logger writing to out
func NewWithOutput(cfg *config.Config, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	// Set log level
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Set log format
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

// Discard returns a logger that drops everything, for tests
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
