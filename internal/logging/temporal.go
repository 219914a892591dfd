package logging

import (
	"log/slog"

	tlog "go.temporal.io/sdk/log"
)

// slogAdapter exposes an slog.Logger through Temporal's client logger
// interface so the worker and schedule manager share one logging stack.
type slogAdapter struct {
	logger *slog.Logger
}

var _ tlog.Logger = slogAdapter{}

// NewTemporalLogger wraps the given slog.Logger for Temporal client options.
func NewTemporalLogger(logger *slog.Logger) tlog.Logger {
	if logger == nil {
		logger = New("info", "text")
	}
	return slogAdapter{logger: logger}
}

func (a slogAdapter) Debug(msg string, keyvals ...interface{}) {
	a.logger.Debug(msg, keyvals...)
}

func (a slogAdapter) Info(msg string, keyvals ...interface{}) {
	a.logger.Info(msg, keyvals...)
}

func (a slogAdapter) Warn(msg string, keyvals ...interface{}) {
	a.logger.Warn(msg, keyvals...)
}

func (a slogAdapter) Error(msg string, keyvals ...interface{}) {
	a.logger.Error(msg, keyvals...)
}
