package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

// ErrStoreNotConfigured is returned by a store that has no credentials or
// target. The writer skips such stores without reporting a failure.
var ErrStoreNotConfigured = errors.New("store not configured")

// RecordStore appends diagnosis records.
type RecordStore interface {
	// Name identifies the store in events and write results
	Name() string

	// AppendRecord appends one record, creating the header row if the target is empty
	AppendRecord(ctx context.Context, record *entities.DiagnosisRecord) error
}

// EventStore appends and reads operational events.
type EventStore interface {
	// Name identifies the store
	Name() string

	// AppendEvent appends one event
	AppendEvent(ctx context.Context, entry *entities.EventLogEntry) error

	// RecentEvents returns up to limit events, newest first
	RecentEvents(ctx context.Context, limit int) ([]*entities.EventLogEntry, error)
}
