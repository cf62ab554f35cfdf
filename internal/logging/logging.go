// Package logging configures the process-wide zerolog logger. Diagnostics go
// to stderr and to an append-only file under the XDG state directory; the
// per-component outcome lines printed by commands are not log output.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agentx-labs/aipkg/internal/branding"
)

// sink is the log file the global logger currently writes to. Repeated setup
// reuses it for the same path and closes it when the path changes.
var (
	sinkMu sync.Mutex
	sink   *os.File
)

// SetupLogger configures the global logger based on verbosity level.
// 0 logs warnings and errors, 1 adds info, 2 adds debug, 3+ trace.
func SetupLogger(verbosity int) {
	SetupLoggerTo(os.Stderr, verbosity)
}

// SetupLoggerTo is SetupLogger with an explicit console writer.
func SetupLoggerTo(console io.Writer, verbosity int) {
	zerolog.SetGlobalLevel(levelFor(verbosity))

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
	}}

	logFile, err := LogFilePath()
	var fileErr error
	if err == nil {
		f, openErr := logSink(logFile)
		if openErr == nil {
			writers = append(writers, f)
		}
		fileErr = openErr
	} else {
		closeSink()
		fileErr = err
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()

	if fileErr != nil {
		log.Debug().Err(fileErr).Str("path", logFile).Msg("Log file unavailable, logging to console only")
	}

	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Int("verbosity", verbosity).Str("logFile", logFile).Msg("Logger initialized")
}

// GetLogger returns a logger tagged with the given component name.
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// LogFilePath returns the log file location, $XDG_STATE_HOME/aipkg/aipkg.log
// by default. AIPKG_LOG_FILE overrides it.
func LogFilePath() (string, error) {
	if v := os.Getenv(branding.EnvVar("LOG_FILE")); v != "" {
		return v, nil
	}
	name := branding.CLIName()
	return xdg.StateFile(filepath.Join(name, name+".log"))
}

// LogOperationStart logs the start of an operation and returns a function
// that logs its completion with the elapsed time.
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}

func levelFor(verbosity int) zerolog.Level {
	switch verbosity {
	case 0:
		return zerolog.WarnLevel
	case 1:
		return zerolog.InfoLevel
	case 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// logSink returns the open log file for path, replacing any file opened
// for a different path.
func logSink(path string) (*os.File, error) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if sink != nil && sink.Name() == path {
		return sink, nil
	}
	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
	f, err := openLogFile(path)
	if err != nil {
		return nil, err
	}
	sink = f
	return f, nil
}

// Close releases the log file. Logging continues on the console.
func Close() {
	closeSink()
	log.Logger = log.Logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func closeSink() {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
