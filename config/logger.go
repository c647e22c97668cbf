package config

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/utils/logging"
)

type LogConfig struct {
	Path       string `yaml:"path" toml:"path"`
	MaxSize    int    `yaml:"maxSize" toml:"maxSize"`
	MaxBackups int    `yaml:"maxBackups" toml:"maxBackups"`
	MaxAge     int    `yaml:"maxAge" toml:"maxAge"`
	Compress   bool   `yaml:"compress" toml:"compress"`
}

// WithDefaults returns a copy of the LogConfig with any missing fields set to
// their default values.
func (c LogConfig) WithDefaults() LogConfig {
	cpy := c
	if cpy.MaxSize == 0 {
		cpy.MaxSize = 50
	}
	if cpy.MaxBackups == 0 {
		cpy.MaxBackups = 5
	}
	if cpy.MaxAge == 0 {
		cpy.MaxAge = 14
	}
	return cpy
}

func (c *TranspileConfig) CreateLogger(debug bool) (
	*zap.Logger,
	io.Closer,
	error,
) {
	filename := c.LogFile
	if filename != "" || c.Logger != nil {
		opts := logging.RotationOptions{}
		if c.Logger != nil {
			l := c.Logger.WithDefaults()
			opts = logging.RotationOptions{
				Dir:        l.Path,
				MaxSize:    l.MaxSize,
				MaxBackups: l.MaxBackups,
				MaxAge:     l.MaxAge,
				Compress:   l.Compress,
			}
		}

		logger, closer, err := logging.NewRotatingFileLogger(debug, filename, opts)
		return logger, closer, errors.Wrap(err, "create logger")
	}

	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}

	return logger, io.NopCloser(nil), errors.Wrap(err, "create logger")
}
