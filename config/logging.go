package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func (l LogConfig) validate() error {
	if _, err := logrus.ParseLevel(l.Level); err != nil {
		return errors.Wrap(err, "invalid log level")
	}

	switch l.Formatter {
	case "text", "json":
		return nil
	}
	return fmt.Errorf("unsupported logging formatter: %q", l.Formatter)
}

// ConfigureLogging sets the level and formatter of a logger
func ConfigureLogging(log *logrus.Logger, cfg LogConfig) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	level, _ := logrus.ParseLevel(cfg.Level)
	log.SetLevel(level)

	switch cfg.Formatter {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	log.Debugf("using %q logging formatter", cfg.Formatter)
	return nil
}
