// Package log wires up the btclog backend forestctl and the accumulator
// package log through, with output mirrored to a rotated file on disk.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// logWriter fans out log backend writes to both stdout and the rotator.
type logWriter struct {
	rotator *rotator.Rotator
}

func (w logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	return w.rotator.Write(p)
}

var backendLog = btclog.NewBackend(io.Discard)

// levels holds the level SetLevel last recorded for each subsystem.
var levels = make(map[string]btclog.Level)

// Logger returns a subsystem logger (e.g. "FRST" for the accumulator,
// "CTLR" for the CLI), tagged with that subsystem's name in every line.
func Logger(subsystem string) btclog.Logger {
	l := backendLog.Logger(subsystem)
	if level, ok := levels[subsystem]; ok {
		l.SetLevel(level)
	}
	return l
}

// InitLogRotator opens (creating if needed) a rotated log file at logFile
// and points the package's backend at it plus stdout. Call this once at
// startup before pulling any Logger.
func InitLogRotator(logFile string) error {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("log: failed to create log directory: %w", err)
	}

	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("log: failed to create file rotator: %w", err)
	}

	backendLog = btclog.NewBackend(logWriter{rotator: r})
	return nil
}

// SetLevel sets the verbosity of every logger obtained through this
// package's Logger function from this point forward.
func SetLevel(subsystem string, level btclog.Level) {
	levels[subsystem] = level
}
