package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
)

func newTestEventLogger(stores ...providers.EventStore) *EventLogger {
	l := NewEventLogger(stores, jst, nil)
	l.now = func() time.Time { return time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC) }
	return l
}

func TestEventLogger_RecordFallsBack(t *testing.T) {
	primary := &fakeEventStore{name: "sheets", err: errors.New("unavailable")}
	fallback := &fakeEventStore{name: "csv"}

	newTestEventLogger(primary, fallback).Record(context.Background(), entities.SeverityWarn, "AI comment not generated", map[string]any{"provider": "openai", "attempts": 2})

	require.Len(t, fallback.entries, 1)
	e := fallback.entries[0]
	assert.Equal(t, "2025-03-14T09:00:00+09:00", e.Timestamp)
	assert.Equal(t, entities.SeverityWarn, e.Level)
	assert.Equal(t, "AI comment not generated", e.Message)
	assert.JSONEq(t, `{"provider":"openai","attempts":2}`, e.Payload)
}

func TestEventLogger_EmptyPayload(t *testing.T) {
	store := &fakeEventStore{name: "csv"}
	newTestEventLogger(store).Record(context.Background(), entities.SeverityInfo, "started", nil)

	require.Len(t, store.entries, 1)
	assert.Equal(t, "", store.entries[0].Payload)
}

func TestEventLogger_PayloadKeepsAmpersands(t *testing.T) {
	store := &fakeEventStore{name: "csv"}
	newTestEventLogger(store).Record(context.Background(), entities.SeverityInfo, "m", map[string]any{"category": "Sales & Collections"})

	assert.Equal(t, `{"category":"Sales & Collections"}`, store.entries[0].Payload)
}

func TestEventLogger_NeverPanicsOrFails(t *testing.T) {
	l := newTestEventLogger(
		&fakeEventStore{name: "boom", panics: true},
		&fakeEventStore{name: "csv"},
	)
	assert.NotPanics(t, func() {
		l.Record(context.Background(), entities.SeverityError, "x", nil)
	})

	all := newTestEventLogger(
		&fakeEventStore{name: "a", err: errors.New("a")},
		&fakeEventStore{name: "b", err: providers.ErrStoreNotConfigured},
	)
	assert.NotPanics(t, func() {
		all.Record(context.Background(), entities.SeverityError, "x", nil)
	})
}

func TestEventLogger_Recent(t *testing.T) {
	unconfigured := &fakeEventStore{name: "sheets", err: providers.ErrStoreNotConfigured, readErr: providers.ErrStoreNotConfigured}
	csv := &fakeEventStore{name: "csv"}
	l := newTestEventLogger(unconfigured, csv)

	for _, msg := range []string{"one", "two", "three"} {
		l.Record(context.Background(), entities.SeverityInfo, msg, nil)
	}

	recent, err := l.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "three", recent[0].Message)
	assert.Equal(t, "two", recent[1].Message)
}

func TestEventLogger_RecentErrors(t *testing.T) {
	l := newTestEventLogger(&fakeEventStore{name: "sheets", readErr: errors.New("403")})
	_, err := l.Recent(context.Background(), 0)
	assert.ErrorContains(t, err, "sheets: 403")

	empty, err := newTestEventLogger().Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
