package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// LoggerOptions configures the global logger.
type LoggerOptions struct {
	Service string
	Env     string
	// Version is the record schema version stamped on every line.
	Version string
	// Level is a zerolog level name; empty or unknown means info.
	Level string
	// Out defaults to stdout. The CLI passes stderr so command output
	// stays parseable.
	Out io.Writer
}

// InitLogger replaces the global zerolog logger. Development gets the
// console writer; everything else gets JSON with caller information.
func InitLogger(opts LoggerOptions) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var base zerolog.Logger
	if opts.Env == "development" {
		base = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		base = zerolog.New(out).With().Caller().Logger()
	}

	ctx := base.Level(level).With().Timestamp().Str("service", opts.Service)
	if opts.Version != "" {
		ctx = ctx.Str("version", opts.Version)
	}
	log.Logger = ctx.Logger()
}

// LoggerFromContext returns the global logger tagged with the trace and
// span IDs of the active span, if any.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := log.With().Logger()

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		logger = logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return &logger
}

// GetLogger returns the global logger
func GetLogger() *zerolog.Logger {
	return &log.Logger
}

// MaskEmail keeps the first character of the local part and the domain,
// e.g. "o***@acme.example". Respondent emails are never logged in full.
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
