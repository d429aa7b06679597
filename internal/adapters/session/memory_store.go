package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps sessions in process memory. Submissions are stored as
// JSON so callers never share a mutable value.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	claims  map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

var _ providers.SessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory session store. A non-positive ttl keeps
// sessions until the process exits.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		claims:  make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Save stores the submission and drops expired sessions.
func (m *MemoryStore) Save(_ context.Context, sub *entities.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, id)
		}
	}
	for id, exp := range m.claims {
		if !exp.IsZero() && !now.Before(exp) {
			delete(m.claims, id)
		}
	}
	entry := memoryEntry{data: data}
	if m.ttl > 0 {
		entry.expires = now.Add(m.ttl)
	}
	m.entries[sub.ID] = entry
	return nil
}

// Get loads a submission by ID.
func (m *MemoryStore) Get(_ context.Context, id string) (*entities.Submission, error) {
	m.mu.Lock()
	e, ok := m.entries[id]
	if ok && m.expired(e, m.now()) {
		delete(m.entries, id)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, providers.ErrSessionNotFound
	}

	var sub entities.Submission
	if err := json.Unmarshal(e.data, &sub); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sub, nil
}

// ClaimWrite reserves the record write for id. The claim lives as long as a
// session would.
func (m *MemoryStore) ClaimWrite(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if exp, ok := m.claims[id]; ok && (exp.IsZero() || now.Before(exp)) {
		return false, nil
	}
	var exp time.Time
	if m.ttl > 0 {
		exp = now.Add(m.ttl)
	}
	m.claims[id] = exp
	return true, nil
}

// ReleaseWrite drops the claim for id.
func (m *MemoryStore) ReleaseWrite(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.claims, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) expired(e memoryEntry, now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}
