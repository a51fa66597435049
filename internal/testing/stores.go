package testing

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/imamik/spotcluster/internal/record"
)

// MemoryStore keeps an encoded record in memory. Saves and loads go through
// the JSON codec so tests see exactly what a file would hold.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

var _ record.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load decodes the stored record.
func (s *MemoryStore) Load(_ context.Context) (*record.ClusterRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, record.ErrNotFound
	}
	return record.Decode(s.data, record.FormatJSON)
}

// Save encodes rec.
func (s *MemoryStore) Save(_ context.Context, rec *record.ClusterRecord) error {
	data, err := record.Encode(rec, record.FormatJSON)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.saves++
	return nil
}

// Retire drops the stored record.
func (s *MemoryStore) Retire(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}

// Location implements record.Store.
func (s *MemoryStore) Location() string {
	return "memory://record"
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Exists reports whether a record is stored.
func (s *MemoryStore) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data != nil
}

// MockStore is a testify mock of record.Store.
type MockStore struct {
	mock.Mock
}

var _ record.Store = (*MockStore)(nil)

// Load mocks record loading.
func (m *MockStore) Load(ctx context.Context) (*record.ClusterRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.ClusterRecord), args.Error(1)
}

// Save mocks record saving.
func (m *MockStore) Save(ctx context.Context, rec *record.ClusterRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// Retire mocks record removal.
func (m *MockStore) Retire(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Location mocks the store location.
func (m *MockStore) Location() string {
	args := m.Called()
	return args.String(0)
}

// NewMockStore creates a MockStore whose Location is preset.
func NewMockStore() *MockStore {
	m := &MockStore{}
	m.On("Location").Return("mock://record").Maybe()
	return m
}
