package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/observability"
)

// EventRecorder records operational events. Implementations never fail the caller.
type EventRecorder interface {
	Record(ctx context.Context, level entities.Severity, message string, payload map[string]any)
}

// EventLogger appends events to the first event store that accepts them.
// Failures are reported to the process log and otherwise swallowed.
type EventLogger struct {
	stores  []providers.EventStore
	loc     *time.Location
	now     func() time.Time
	metrics *observability.Metrics
}

// NewEventLogger creates an event logger over an ordered store chain.
func NewEventLogger(stores []providers.EventStore, loc *time.Location, metrics *observability.Metrics) *EventLogger {
	if loc == nil {
		loc = time.UTC
	}
	return &EventLogger{stores: stores, loc: loc, now: time.Now, metrics: metrics}
}

// Record appends one event.
func (l *EventLogger) Record(ctx context.Context, level entities.Severity, message string, payload map[string]any) {
	logger := observability.LoggerFromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("message", message).Msg("event logging panicked")
		}
	}()

	entry := &entities.EventLogEntry{
		Timestamp: l.now().In(l.loc).Format(time.RFC3339),
		Level:     level,
		Message:   message,
		Payload:   encodePayload(payload),
	}

	logEvent(logger, entry)

	var errs []error
	for _, store := range l.stores {
		err := store.AppendEvent(ctx, entry)
		if err == nil {
			observability.RecordEventWrite(ctx, l.metrics, store.Name(), true)
			return
		}
		if !errors.Is(err, providers.ErrStoreNotConfigured) {
			observability.RecordEventWrite(ctx, l.metrics, store.Name(), false)
			errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
		}
	}
	logger.Error().Err(errors.Join(errs...)).Str("message", message).Msg("failed to persist event to any store")
}

// Recent returns up to limit events, newest first, from the first store
// that can read them.
func (l *EventLogger) Recent(ctx context.Context, limit int) ([]*entities.EventLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var errs []error
	for _, store := range l.stores {
		events, err := store.RecentEvents(ctx, limit)
		if err == nil {
			return events, nil
		}
		if !errors.Is(err, providers.ErrStoreNotConfigured) {
			errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
		}
	}
	if len(errs) == 0 {
		return []*entities.EventLogEntry{}, nil
	}
	return nil, errors.Join(errs...)
}

func encodePayload(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return `{"encode_error":` + jsonString(err.Error()) + `}`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func logEvent(logger *zerolog.Logger, entry *entities.EventLogEntry) {
	var ev *zerolog.Event
	switch entry.Level {
	case entities.SeverityError:
		ev = logger.Error()
	case entities.SeverityWarn:
		ev = logger.Warn()
	default:
		ev = logger.Info()
	}
	if entry.Payload != "" {
		ev = ev.RawJSON("payload", []byte(entry.Payload))
	}
	ev.Msg(entry.Message)
}

// NopEventRecorder discards events.
type NopEventRecorder struct{}

// Record implements EventRecorder.
func (NopEventRecorder) Record(context.Context, entities.Severity, string, map[string]any) {}
