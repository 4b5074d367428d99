package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New creates the application logger: human readable in development, JSON elsewhere
func New(appName, env string) *logrus.Logger {
	return NewWithOutput(appName, env, os.Stdout)
}

// NewWithOutput is New with an explicit destination
func NewWithOutput(appName, env string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	if env == "development" {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	log.WithFields(logrus.Fields{"app": appName, "env": env}).Info("logger initialized")
	return log
}

// Discard returns a logger that drops everything, for tests and tools
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
