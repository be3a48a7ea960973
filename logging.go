package yolostream

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LogSettings configures the program logger
type LogSettings struct {
	// Level is one of debug, info, warn or error
	Level string `yaml:"level"`
	// File additionally writes log output to the named file
	File string `yaml:"file"`
	// JSON selects structured JSON output instead of text
	JSON bool `yaml:"json"`
}

// NewLogger returns a logrus Logger writing to stdout and the optional log
// file.  The returned close function releases the log file
func NewLogger(s LogSettings) (*logrus.Logger, func() error, error) {

	log := logrus.New()

	level, err := logrus.ParseLevel(s.Level)

	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	log.SetLevel(level)

	if s.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	log.SetOutput(os.Stdout)
	closeFn := func() error { return nil }

	if s.File != "" {
		file, err := os.OpenFile(s.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)

		if err != nil {
			log.WithError(err).Warn("Failed to log to file, using stdout only")
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, file))
			closeFn = file.Close
		}
	}

	return log, closeFn, nil
}
