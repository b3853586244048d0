// Package logging builds the diagnostic logger shared by the CLI.
package logging

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// New returns a logger writing to w. Diagnostics stay at warn level unless
// verbose is set; jsonFormat switches to one JSON object per line.
func New(w io.Writer, verbose, jsonFormat bool) *log.Logger {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetLevel(log.WarnLevel)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if jsonFormat {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	}
	return logger
}
