package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logg = newLogger("info")

func GetLogger() *logrus.Logger {
	return logg
}

// SetupLogger replaces the package logger with one at the given level.
func SetupLogger(level string) *logrus.Logger {
	logg = newLogger(level)
	return logg
}

func newLogger(level string) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
