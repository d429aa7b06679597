package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
)

// MockNarrativeProvider is a mock implementation of providers.NarrativeProvider
type MockNarrativeProvider struct {
	mock.Mock
}

func (m *MockNarrativeProvider) Name() string { return "mock" }

func (m *MockNarrativeProvider) Generate(ctx context.Context, req providers.NarrativeRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type fakeRecordStore struct {
	name string
	err  error

	mu      sync.Mutex
	calls   int
	records []*entities.DiagnosisRecord
}

func (f *fakeRecordStore) Name() string { return f.name }

func (f *fakeRecordStore) AppendRecord(_ context.Context, r *entities.DiagnosisRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, r)
	return nil
}

func (f *fakeRecordStore) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEventStore struct {
	name    string
	err     error
	readErr error
	panics  bool

	mu      sync.Mutex
	entries []*entities.EventLogEntry
}

func (f *fakeEventStore) Name() string { return f.name }

func (f *fakeEventStore) AppendEvent(_ context.Context, e *entities.EventLogEntry) error {
	if f.panics {
		panic("store exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeEventStore) RecentEvents(_ context.Context, limit int) ([]*entities.EventLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([]*entities.EventLogEntry, 0, limit)
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.entries[i])
	}
	return out, nil
}

// recordedEvent is one call captured by recordingEvents.
type recordedEvent struct {
	Level   entities.Severity
	Message string
	Payload map[string]any
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingEvents) Record(_ context.Context, level entities.Severity, message string, payload map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Level: level, Message: message, Payload: payload})
}

func (r *recordingEvents) ByLevel(level entities.Severity) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

type memorySessions struct {
	mu     sync.Mutex
	subs   map[string][]byte
	claims map[string]bool
}

func newMemorySessions() *memorySessions {
	return &memorySessions{subs: map[string][]byte{}, claims: map[string]bool{}}
}

func (m *memorySessions) ClaimWrite(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claims[id] {
		return false, nil
	}
	m.claims[id] = true
	return true, nil
}

func (m *memorySessions) ReleaseWrite(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, id)
	return nil
}

// Save stores a deep copy so tests observe what a real store would persist.
func (m *memorySessions) Save(_ context.Context, sub *entities.Submission) error {
	b, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.ID] = b
	return nil
}

func (m *memorySessions) Get(_ context.Context, id string) (*entities.Submission, error) {
	m.mu.Lock()
	b, ok := m.subs[id]
	m.mu.Unlock()
	if !ok {
		return nil, providers.ErrSessionNotFound
	}
	var sub entities.Submission
	if err := json.Unmarshal(b, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

type fakeRenderer struct {
	err error

	mu     sync.Mutex
	inputs []entities.ReportInput
}

func (f *fakeRenderer) Render(_ context.Context, in entities.ReportInput) (*entities.ReportArtifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &entities.ReportArtifact{Filename: "report.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.3")}, nil
}
