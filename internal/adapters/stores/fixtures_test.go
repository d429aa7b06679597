package stores

import (
	"context"
	"strings"
	"sync"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

func sampleRecord() *entities.DiagnosisRecord {
	return &entities.DiagnosisRecord{
		Timestamp:      "2025-03-14T10:02:03+09:00",
		Company:        "Acme, Inc.",
		Email:          "owner@acme.example",
		CategoryScores: `{"Sales & Collections": 3, "Payments & Purchasing": 1}`,
		TotalScore:     3.4,
		TypeLabel:      "Payment-Squeezed",
		AIComment:      `Line one "quoted"`,
		UTMSource:      "ads",
		AppVersion:     "cf-v1.0.0",
		Status:         "ok",
		AICommentLen:   17,
		RiskLevel:      "Medium risk",
		EntryCheck:     "OK",
		ReportDate:     "2025-03-14",
	}
}

func event(ts string, level entities.Severity, msg string) *entities.EventLogEntry {
	return &entities.EventLogEntry{Timestamp: ts, Level: level, Message: msg}
}

// memorySheets is an in-memory SheetsAPI keyed by tab title.
type memorySheets struct {
	mu      sync.Mutex
	tabs    map[string][][]string
	created []string
	appends int
	err     error
}

func newMemorySheets(tabs ...string) *memorySheets {
	m := &memorySheets{tabs: map[string][][]string{}}
	for _, t := range tabs {
		m.tabs[t] = nil
	}
	return m
}

func tabOf(rng string) string {
	if i := strings.Index(rng, "!"); i >= 0 {
		return rng[:i]
	}
	return rng
}

func (m *memorySheets) ReadRange(_ context.Context, rng string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rows := m.tabs[tabOf(rng)]
	if strings.HasSuffix(rng, "!1:1") && len(rows) > 1 {
		rows = rows[:1]
	}
	out := make([][]string, len(rows))
	copy(out, rows)
	return out, nil
}

func (m *memorySheets) AppendRow(_ context.Context, rng string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.appends++
	tab := tabOf(rng)
	m.tabs[tab] = append(m.tabs[tab], append([]string(nil), row...))
	return nil
}

func (m *memorySheets) EnsureSheet(_ context.Context, title string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.tabs[title]; ok {
		return false, nil
	}
	m.tabs[title] = nil
	m.created = append(m.created, title)
	return true, nil
}
