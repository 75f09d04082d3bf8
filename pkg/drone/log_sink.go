package drone

import (
	"log/slog"

	"github.com/teslashibe/go-follow/internal/log"
	"github.com/teslashibe/go-follow/pkg/tracking"
)

// LogSink logs intents instead of flying. It stands in for the platform
// when only a webcam is attached.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a logging sink.
func NewLogSink() *LogSink {
	return &LogSink{logger: log.Component("sink")}
}

// Execute logs the commands the intent would send.
func (s *LogSink) Execute(intent tracking.Intent) error {
	if intent.IsZero() {
		return nil
	}
	cmds := CommandsFor(intent)
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.String()
	}
	s.logger.Info("pursuit", "commands", names)
	return nil
}
