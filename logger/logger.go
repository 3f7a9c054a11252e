package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	projectLogger *logrus.Logger
	once          sync.Once
)

// GetProjectLogger returns the logger shared by every package in the player.
func GetProjectLogger() *logrus.Logger {
	once.Do(func() {
		projectLogger = logrus.New()
		projectLogger.SetOutput(os.Stderr)
		projectLogger.SetLevel(logrus.InfoLevel)
		projectLogger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	})

	return projectLogger
}

// Configure sets the output and level of the project logger. An unknown level
// leaves the current level in place and is reported through the returned error.
func Configure(out io.Writer, level string) error {
	logger := GetProjectLogger()
	if out != nil {
		logger.SetOutput(out)
	}
	if level == "" {
		return nil
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)

	return nil
}
