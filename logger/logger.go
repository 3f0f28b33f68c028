// Package logger provides leveled logging for the profile manager.
package logger

import (
	"os"

	"github.com/op/go-logging"
)

const timeFormat = "2006/01/02 15:04:05"

var logger *logging.Logger

func init() {
	InitLogger(logging.INFO)
}

// InitLogger configures the console backend with the given level.
func InitLogger(level logging.Level) {
	newLogger := logging.MustGetLogger("3x-ui-manager")

	backend := logging.NewLogBackend(os.Stderr, "", 0)
	format := logging.MustStringFormatter(`%{time:` + timeFormat + `} %{level} - %{message}`)
	leveledBackend := logging.AddModuleLevel(logging.NewBackendFormatter(backend, format))
	leveledBackend.SetLevel(level, "3x-ui-manager")

	newLogger.SetBackend(leveledBackend)
	logger = newLogger
}

// ParseLevel maps a config string to a logging level, defaulting to INFO.
func ParseLevel(level string) logging.Level {
	parsed, err := logging.LogLevel(level)
	if err != nil {
		return logging.INFO
	}
	return parsed
}

func Debug(args ...any) {
	logger.Debug(args...)
}

func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

func Info(args ...any) {
	logger.Info(args...)
}

func Infof(format string, args ...any) {
	logger.Infof(format, args...)
}

func Warning(args ...any) {
	logger.Warning(args...)
}

func Warningf(format string, args ...any) {
	logger.Warningf(format, args...)
}

func Error(args ...any) {
	logger.Error(args...)
}

func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
}
