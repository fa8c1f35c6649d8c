package netty

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// defaultLogger is the module-wide logger used for pipeline mutation and
// channel lifecycle debug logging (see Pipeline.Add/Remove and Channel
// state transitions). Override with SetLogger.
var defaultLogger atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	defaultLogger.Store(&l)
}

// SetLogger overrides the module-wide logger.
func SetLogger(logger zerolog.Logger) {
	defaultLogger.Store(&logger)
}

func log() *zerolog.Logger {
	return defaultLogger.Load()
}
