package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the shared JSON logger. Level comes from LOG_LEVEL
// (default info).
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
