package pocketkit

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerMu sync.RWMutex
	logger   *zerolog.Logger
)

// Logger returns the process-wide pocketkit logger, initializing it on
// first use. The default writes human-readable lines to stderr at info
// level.
func Logger() zerolog.Logger {
	loggerMu.RLock()
	if logger != nil {
		l := *logger
		loggerMu.RUnlock()
		return l
	}
	loggerMu.RUnlock()

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		l := newDefaultLogger()
		logger = &l
	}
	return *logger
}

// SetLogger replaces the process-wide logger. Intended for hosts that
// already configure zerolog, and for tests capturing emissions.
func SetLogger(l zerolog.Logger) {
	loggerMu.Lock()
	logger = &l
	loggerMu.Unlock()
}

// SetLogLevel adjusts the level of the process-wide logger.
func SetLogLevel(level zerolog.Level) {
	SetLogger(Logger().Level(level))
}

func newDefaultLogger() zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(out).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Str("component", "pocketkit").
		Logger()
}
