package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
)

const (
	keyPrefix   = "session:"
	claimPrefix = "session-write:"
)

// CacheStore keeps sessions in a CacheProvider so several API instances
// can serve the same session.
type CacheStore struct {
	cache providers.CacheProvider
	ttl   time.Duration
}

var _ providers.SessionStore = (*CacheStore)(nil)

// NewCacheStore creates a cache-backed session store.
func NewCacheStore(cache providers.CacheProvider, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CacheStore{cache: cache, ttl: ttl}
}

// Save stores the submission and refreshes its expiry.
func (s *CacheStore) Save(ctx context.Context, sub *entities.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.cache.Set(ctx, keyPrefix+sub.ID, data, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get loads a submission by ID.
func (s *CacheStore) Get(ctx context.Context, id string) (*entities.Submission, error) {
	data, err := s.cache.Get(ctx, keyPrefix+id)
	if errors.Is(err, providers.ErrCacheMiss) {
		return nil, providers.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sub entities.Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sub, nil
}

// ClaimWrite sets the claim key with SET NX, so the claim holds across every
// instance sharing the cache. It expires with the session.
func (s *CacheStore) ClaimWrite(ctx context.Context, id string) (bool, error) {
	ok, err := s.cache.SetNX(ctx, claimPrefix+id, []byte("1"), s.ttl)
	if err != nil {
		return false, fmt.Errorf("failed to claim session write: %w", err)
	}
	return ok, nil
}

// ReleaseWrite deletes the claim key.
func (s *CacheStore) ReleaseWrite(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, claimPrefix+id); err != nil {
		return fmt.Errorf("failed to release session write: %w", err)
	}
	return nil
}
