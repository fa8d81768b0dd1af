package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Options configures the log sinks assembled by Setup.
type Options struct {
	// File receives text-formatted records. When nil, records go to stdout
	// instead.
	File io.Writer
	// Level is the minimum level as a string ("debug", "info", "warn",
	// "error"). Unknown values default to info.
	Level string
	// Provider, when non-nil, adds an OTel bridge handler so records are
	// exported alongside metrics.
	Provider *sdklog.LoggerProvider
	// Graylog, when non-nil, receives JSON-formatted records. Use
	// NewGraylogWriter to obtain a GELF transport.
	Graylog io.Writer
}

// SlogManager assembles the slog sinks and owns the resulting logger.
type SlogManager struct {
	logger *slog.Logger

	// kept for flushing on shutdown
	logProvider *sdklog.LoggerProvider

	// GetProfile and GetTick, when set, tag every record with the active
	// session profile and tick counter. Assigned after the session context
	// and simulator exist; they are read per record, so late assignment is
	// fine.
	GetProfile func() string
	GetTick    func() uint64
}

// NewSlogManager creates an unconfigured manager. Logger returns
// slog.Default until Setup is called.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system from opts. It may be called again to
// re-point the sinks, e.g. when a new session rotates the log file.
func (m *SlogManager) Setup(opts Options) {
	lvl := parseLevel(opts.Level)
	m.logProvider = opts.Provider

	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler

	if opts.File != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.File, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(os.Stdout, handlerOpts))
	}

	if opts.Graylog != nil {
		handlers = append(handlers, slog.NewJSONHandler(opts.Graylog, handlerOpts))
	}

	if opts.Provider != nil {
		otelHandler := otelslog.NewHandler("cansim", otelslog.WithLoggerProvider(opts.Provider))
		handlers = append(handlers, otelHandler)
	}

	combined := NewContextHandler(NewMultiHandler(handlers...), m.contextAttrs)
	m.logger = slog.New(combined)
	m.logger.Info("Logging initialized", "level", opts.Level)
}

// contextAttrs evaluates the callback fields for each record.
func (m *SlogManager) contextAttrs() []slog.Attr {
	var attrs []slog.Attr
	if m.GetProfile != nil {
		attrs = append(attrs, slog.String("profile", m.GetProfile()))
	}
	if m.GetTick != nil {
		attrs = append(attrs, slog.Uint64("tick", m.GetTick()))
	}
	return attrs
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel-exported logs if a provider was configured.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
