package stores

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
)

// CSVStore is the local fallback store. Records and events go to separate
// files; each file gets a header row when it is created.
type CSVStore struct {
	records *csvFile
	events  *csvFile
}

var (
	_ providers.RecordStore = (*CSVStore)(nil)
	_ providers.EventStore  = (*CSVStore)(nil)
)

// NewCSVStore creates a CSV store. An empty path disables that half of the store.
func NewCSVStore(responsesPath, eventsPath string) *CSVStore {
	return &CSVStore{
		records: &csvFile{path: responsesPath, header: entities.RecordColumns},
		events:  &csvFile{path: eventsPath, header: entities.EventColumns},
	}
}

// Name returns the store name.
func (s *CSVStore) Name() string {
	return "csv"
}

// AppendRecord appends one record row.
func (s *CSVStore) AppendRecord(_ context.Context, record *entities.DiagnosisRecord) error {
	return s.records.append(record.Values())
}

// AppendEvent appends one event row.
func (s *CSVStore) AppendEvent(_ context.Context, entry *entities.EventLogEntry) error {
	return s.events.append(entry.Values())
}

// RecentEvents returns up to limit events ordered by timestamp, newest first.
// Rows with equal timestamps keep the later-written row first.
func (s *CSVStore) RecentEvents(_ context.Context, limit int) ([]*entities.EventLogEntry, error) {
	rows, err := s.events.readAll()
	if err != nil {
		return nil, err
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

type csvFile struct {
	path   string
	header []string
	mu     sync.Mutex
}

func (f *csvFile) append(values []string) (err error) {
	if f.path == "" {
		return providers.ErrStoreNotConfigured
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("csv: failed to create directory: %w", err)
		}
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("csv: failed to open %s: %w", f.path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("csv: failed to close %s: %w", f.path, cerr)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("csv: failed to stat %s: %w", f.path, err)
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(f.header); err != nil {
			return fmt.Errorf("csv: failed to write header: %w", err)
		}
	}
	if err := w.Write(values); err != nil {
		return fmt.Errorf("csv: failed to write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: failed to flush %s: %w", f.path, err)
	}
	return nil
}

// readAll returns the data rows without the header. A missing file has no rows.
func (f *csvFile) readAll() ([][]string, error) {
	if f.path == "" {
		return nil, providers.ErrStoreNotConfigured
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return [][]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: failed to open %s: %w", f.path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	var rows [][]string
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: failed to read %s: %w", f.path, err)
		}
		if first {
			first = false
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
