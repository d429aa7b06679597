package stores

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
)

const (
	recordsTable = "diagnosis_records"
	eventsTable  = "diagnosis_events"
)

// SQLStore appends records and events to SQL tables through goqu. The
// dialect-specific constructors live in postgres_store.go and sqlite_store.go.
type SQLStore struct {
	name   string
	raw    *sql.DB
	db     *goqu.Database
	schema []string

	mu    sync.Mutex
	ready bool
}

var (
	_ providers.RecordStore = (*SQLStore)(nil)
	_ providers.EventStore  = (*SQLStore)(nil)
)

func newSQLStore(name, dialect string, db *sql.DB, schema []string) *SQLStore {
	return &SQLStore{
		name:   name,
		raw:    db,
		db:     goqu.New(dialect, db),
		schema: schema,
	}
}

// Name returns the store name.
func (s *SQLStore) Name() string {
	return s.name
}

// ensureSchema creates the tables once per process.
func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s.raw == nil {
		return providers.ErrStoreNotConfigured
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	for _, stmt := range s.schema {
		if _, err := s.raw.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: failed to create schema: %w", s.name, err)
		}
	}
	s.ready = true
	return nil
}

// AppendRecord inserts one diagnosis record.
func (s *SQLStore) AppendRecord(ctx context.Context, record *entities.DiagnosisRecord) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	row := goqu.Record{
		"timestamp":       record.Timestamp,
		"company":         record.Company,
		"email":           record.Email,
		"category_scores": record.CategoryScores,
		"total_score":     record.TotalScore,
		"type_label":      record.TypeLabel,
		"ai_comment":      record.AIComment,
		"utm_source":      record.UTMSource,
		"utm_campaign":    record.UTMCampaign,
		"pdf_url":         record.PDFURL,
		"app_version":     record.AppVersion,
		"status":          record.Status,
		"ai_comment_len":  record.AICommentLen,
		"risk_level":      record.RiskLevel,
		"entry_check":     record.EntryCheck,
		"report_date":     record.ReportDate,
	}

	query, args, err := s.db.Insert(recordsTable).Prepared(true).Rows(row).ToSQL()
	if err != nil {
		return fmt.Errorf("%s: failed to build record insert: %w", s.name, err)
	}
	if _, err := s.raw.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to insert record: %w", s.name, err)
	}
	return nil
}

// AppendEvent inserts one event.
func (s *SQLStore) AppendEvent(ctx context.Context, entry *entities.EventLogEntry) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	query, args, err := s.db.Insert(eventsTable).Prepared(true).Rows(goqu.Record{
		"timestamp": entry.Timestamp,
		"level":     string(entry.Level),
		"message":   entry.Message,
		"payload":   entry.Payload,
	}).ToSQL()
	if err != nil {
		return fmt.Errorf("%s: failed to build event insert: %w", s.name, err)
	}
	if _, err := s.raw.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to insert event: %w", s.name, err)
	}
	return nil
}

// RecentEvents returns up to limit events, newest first.
func (s *SQLStore) RecentEvents(ctx context.Context, limit int) ([]*entities.EventLogEntry, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []*entities.EventLogEntry{}, nil
	}

	query, args, err := s.db.From(eventsTable).
		Prepared(true).
		Select("timestamp", "level", "message", "payload").
		Order(goqu.C("id").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build events query: %w", s.name, err)
	}

	rows, err := s.raw.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query events: %w", s.name, err)
	}
	defer rows.Close()

	events := make([]*entities.EventLogEntry, 0, limit)
	for rows.Next() {
		var e entities.EventLogEntry
		var level string
		if err := rows.Scan(&e.Timestamp, &level, &e.Message, &e.Payload); err != nil {
			return nil, fmt.Errorf("%s: failed to scan event: %w", s.name, err)
		}
		e.Level = entities.Severity(level)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to read events: %w", s.name, err)
	}
	return events, nil
}
