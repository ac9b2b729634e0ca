package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

// Init configures the process-wide logger. Unknown levels fall back to info.
func Init(level string) {
	log = logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
}

// GetLogger returns the process-wide logger, initializing a default one if
// Init was never called (keeps library-style use and tests working).
func GetLogger() *logrus.Logger {
	if log == nil {
		Init("info")
	}
	return log
}
