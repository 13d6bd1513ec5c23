package main

import (
	"io"

	"github.com/sirupsen/logrus"
)

// newLogger builds the structured logger used to report diagnostics
// that snapfs itself returns rather than logs, such as alias-parsing
// warnings. debug lowers the level from Info to Debug. Command errors
// are not logged here; Run prints them directly to stderr.
func newLogger(out io.Writer, debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}
