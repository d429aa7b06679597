package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
)

type MockCacheProvider struct {
	mock.Mock
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCacheProvider) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheProvider) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	args := m.Called(ctx, key, ttl)
	return int64(args.Int(0)), args.Error(1)
}

func sampleSubmission() *entities.Submission {
	return &entities.Submission{
		ID:      "0b6c7f1e-3f55-4d8e-9a39-0d1f1b8c2a10",
		Company: "Acme Trading",
		Email:   "owner@acme.example",
		Scores:  []entities.CategoryScore{{Key: "sales", Name: "Sales & Collections", Score: 3}},
		Classification: entities.Classification{
			Signal:    entities.SignalCaution,
			TypeLabel: "Sales-Dependent",
		},
		Narrative:      &entities.NarrativeComment{Text: "Chase receivables.", Source: entities.NarrativeSourceAI, Provider: "openai"},
		NarrativeTried: true,
		Saved:          true,
		SavedTo:        "csv",
	}
}

func TestMemoryStore_SaveAndGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	sub := sampleSubmission()

	require.NoError(t, store.Save(context.Background(), sub))
	sub.Company = "mutated"

	got, err := store.Get(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Trading", got.Company)
	assert.Equal(t, entities.SignalCaution, got.Classification.Signal)
	assert.Equal(t, "Chase receivables.", got.NarrativeText())
	assert.True(t, got.Saved)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(context.Background(), sampleSubmission()))

	now = now.Add(59 * time.Second)
	_, err := store.Get(context.Background(), sampleSubmission().ID)
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = store.Get(context.Background(), sampleSubmission().ID)
	assert.ErrorIs(t, err, providers.ErrSessionNotFound)
}

func TestMemoryStore_Unknown(t *testing.T) {
	_, err := NewMemoryStore(0).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, providers.ErrSessionNotFound)
}

func TestCacheStore_Save(t *testing.T) {
	cache := new(MockCacheProvider)
	sub := sampleSubmission()
	cache.On("Set", mock.Anything, "session:"+sub.ID, mock.AnythingOfType("[]uint8"), 2*time.Hour).Return(nil).Once()

	store := NewCacheStore(cache, 2*time.Hour)
	require.NoError(t, store.Save(context.Background(), sub))

	cache.AssertExpectations(t)
}

func TestCacheStore_Get(t *testing.T) {
	cache := new(MockCacheProvider)
	sub := sampleSubmission()
	data, err := json.Marshal(sub)
	require.NoError(t, err)
	cache.On("Get", mock.Anything, "session:"+sub.ID).Return(data, nil).Once()

	got, err := NewCacheStore(cache, time.Hour).Get(context.Background(), sub.ID)

	require.NoError(t, err)
	assert.Equal(t, sub.Company, got.Company)
	assert.Equal(t, "openai", got.Narrative.Provider)
	cache.AssertExpectations(t)
}

func TestCacheStore_GetErrors(t *testing.T) {
	cache := new(MockCacheProvider)
	cache.On("Get", mock.Anything, "session:gone").Return(nil, providers.ErrCacheMiss)
	cache.On("Get", mock.Anything, "session:down").Return(nil, errors.New("connection refused"))
	store := NewCacheStore(cache, time.Hour)

	_, err := store.Get(context.Background(), "gone")
	assert.ErrorIs(t, err, providers.ErrSessionNotFound)

	_, err = store.Get(context.Background(), "down")
	assert.ErrorContains(t, err, "connection refused")
	assert.NotErrorIs(t, err, providers.ErrSessionNotFound)
}

func TestCacheStore_SaveError(t *testing.T) {
	cache := new(MockCacheProvider)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("OOM"))

	err := NewCacheStore(cache, 0).Save(context.Background(), sampleSubmission())

	assert.ErrorContains(t, err, "OOM")
}

func TestMemoryStore_ClaimWrite(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Hour)
	store.now = func() time.Time { return now }

	ok, err := store.ClaimWrite(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ClaimWrite(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok, "second claim must be refused")

	ok, _ = store.ClaimWrite(ctx, "s2")
	assert.True(t, ok, "claims are per session")

	require.NoError(t, store.ReleaseWrite(ctx, "s1"))
	ok, _ = store.ClaimWrite(ctx, "s1")
	assert.True(t, ok, "released claim can be taken again")

	now = now.Add(2 * time.Hour)
	ok, _ = store.ClaimWrite(ctx, "s2")
	assert.True(t, ok, "expired claim can be taken again")
}

func TestCacheStore_ClaimWrite(t *testing.T) {
	ctx := context.Background()
	cache := new(MockCacheProvider)
	cache.On("SetNX", ctx, "session-write:s1", []byte("1"), 2*time.Hour).Return(true, nil).Once()
	cache.On("SetNX", ctx, "session-write:s1", []byte("1"), 2*time.Hour).Return(false, nil).Once()
	cache.On("Delete", ctx, "session-write:s1").Return(nil).Once()
	store := NewCacheStore(cache, 2*time.Hour)

	ok, err := store.ClaimWrite(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ClaimWrite(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.ReleaseWrite(ctx, "s1"))
	cache.AssertExpectations(t)
}

func TestCacheStore_ClaimWriteError(t *testing.T) {
	ctx := context.Background()
	cache := new(MockCacheProvider)
	cache.On("SetNX", ctx, "session-write:s1", []byte("1"), time.Hour).Return(false, errors.New("connection refused"))
	store := NewCacheStore(cache, time.Hour)

	_, err := store.ClaimWrite(ctx, "s1")
	assert.ErrorContains(t, err, "connection refused")
}
