// Package logging builds the service logger and carries request-scoped log
// entries through context.Context.
package logging

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/canvas/pkg/types"
)

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

var entryKey = key{}

// New returns a logger writing to out at the given level and format.
func New(out io.Writer, level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(lvl)

	switch format {
	case types.LogFormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	case types.LogFormatText, "":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrLogFormatUnknown, format)
	}
	return logger, nil
}

// WithEntry returns a new context carrying entry.
func WithEntry(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, entryKey, entry)
}

// FromContext returns the entry stored by WithEntry, or an entry on the
// standard logger when the context carries none.
func FromContext(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(entryKey).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// StdLogger adapts logger for APIs that take a *log.Logger, such as
// http.Server.ErrorLog. Lines are logged at error level.
func StdLogger(logger *logrus.Logger) *log.Logger {
	return log.New(logger.WriterLevel(logrus.ErrorLevel), "", 0)
}
