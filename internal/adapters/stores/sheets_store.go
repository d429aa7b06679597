package stores

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
)

// SheetsAPI is the subset of the Sheets client the store uses.
type SheetsAPI interface {
	ReadRange(ctx context.Context, rng string) ([][]string, error)
	AppendRow(ctx context.Context, rng string, row []string) error
	EnsureSheet(ctx context.Context, title string) (bool, error)
}

// SheetsStore appends records and events to two tabs of one spreadsheet.
type SheetsStore struct {
	api       SheetsAPI
	initErr   error
	responses *sheetTab
	events    *sheetTab
}

var (
	_ providers.RecordStore = (*SheetsStore)(nil)
	_ providers.EventStore  = (*SheetsStore)(nil)
)

// NewSheetsStore creates a Sheets store. A nil api with a nil initErr means
// the store is not configured; a non-nil initErr is returned from every call.
func NewSheetsStore(api SheetsAPI, initErr error, responsesTab, eventsTab string) *SheetsStore {
	return &SheetsStore{
		api:       api,
		initErr:   initErr,
		responses: &sheetTab{title: responsesTab, header: entities.RecordColumns},
		events:    &sheetTab{title: eventsTab, header: entities.EventColumns},
	}
}

// Name returns the store name.
func (s *SheetsStore) Name() string {
	return "sheets"
}

func (s *SheetsStore) usable() error {
	if s.initErr != nil {
		return s.initErr
	}
	if s.api == nil {
		return providers.ErrStoreNotConfigured
	}
	return nil
}

// AppendRecord appends one record row to the responses tab.
func (s *SheetsStore) AppendRecord(ctx context.Context, record *entities.DiagnosisRecord) error {
	if err := s.usable(); err != nil {
		return err
	}
	if err := s.responses.ensureHeader(ctx, s.api); err != nil {
		return err
	}
	return s.api.AppendRow(ctx, s.responses.anchor(), record.Values())
}

// AppendEvent appends one event row to the events tab, creating the tab if needed.
func (s *SheetsStore) AppendEvent(ctx context.Context, entry *entities.EventLogEntry) error {
	if err := s.usable(); err != nil {
		return err
	}
	if err := s.events.ensureHeader(ctx, s.api); err != nil {
		return err
	}
	return s.api.AppendRow(ctx, s.events.anchor(), entry.Values())
}

// RecentEvents returns up to limit events ordered by timestamp, newest first.
func (s *SheetsStore) RecentEvents(ctx context.Context, limit int) ([]*entities.EventLogEntry, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	rows, err := s.api.ReadRange(ctx, fmt.Sprintf("%s!A:D", s.events.title))
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}

	events := make([]*entities.EventLogEntry, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		events = append(events, entities.EventFromValues(rows[i]))
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})
	if limit >= 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

type sheetTab struct {
	title  string
	header []string

	mu      sync.Mutex
	checked bool
}

func (t *sheetTab) anchor() string {
	return t.title + "!A1"
}

// ensureHeader creates the tab if missing and writes the header row when the
// first row is empty. It runs once per process after a success.
func (t *sheetTab) ensureHeader(ctx context.Context, api SheetsAPI) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checked {
		return nil
	}

	if _, err := api.EnsureSheet(ctx, t.title); err != nil {
		return err
	}
	first, err := api.ReadRange(ctx, t.title+"!1:1")
	if err != nil {
		return err
	}
	if len(first) == 0 || len(first[0]) == 0 {
		if err := api.AppendRow(ctx, t.anchor(), t.header); err != nil {
			return fmt.Errorf("failed to write header to %s: %w", t.title, err)
		}
	}
	t.checked = true
	return nil
}
