package notify

import (
	"context"

	"go.uber.org/zap"
)

// LoggerSink is a NotificationSink that writes outcome messages to the
// structured log. It stands in for the toast layer of a UI: fire-and-forget,
// never blocking the workflow.
type LoggerSink struct {
	logger *zap.Logger
}

// NewLoggerSink creates a sink over the given logger
func NewLoggerSink(logger *zap.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// Success reports a user-facing success message
func (s *LoggerSink) Success(ctx context.Context, msg string) {
	s.logger.Info(msg, zap.String("notification", "success"))
}

// Error reports a user-facing failure message
func (s *LoggerSink) Error(ctx context.Context, msg string) {
	s.logger.Warn(msg, zap.String("notification", "error"))
}
