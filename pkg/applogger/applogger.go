package applogger

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-registration/config"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// GetLogrus returns the shared application logger. Output is JSON so log
// aggregation can index the fields repositories and use cases attach.
func GetLogrus() *logrus.Logger {
	once.Do(func() {
		c := config.Get()

		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})

		level, err := logrus.ParseLevel(c.Application.LogLevel)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
	})

	return logger
}
