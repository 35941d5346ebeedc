package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/docsum/internal/core/ports/driven"
)

// Ensure MockTokenStore implements TokenStore
var _ driven.TokenStore = (*MockTokenStore)(nil)

// MockTokenStore is a mock implementation of TokenStore for testing
type MockTokenStore struct {
	mu    sync.RWMutex
	token string

	LoadErr  error
	SaveErr  error
	ClearErr error
}

// NewMockTokenStore creates a store holding token ("" for empty)
func NewMockTokenStore(token string) *MockTokenStore {
	return &MockTokenStore{token: token}
}

func (m *MockTokenStore) Load(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.LoadErr != nil {
		return "", m.LoadErr
	}
	return m.token, nil
}

func (m *MockTokenStore) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.token = token
	return nil
}

func (m *MockTokenStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.token = ""
	return nil
}

// Stored returns the persisted value regardless of injected errors
func (m *MockTokenStore) Stored() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}
