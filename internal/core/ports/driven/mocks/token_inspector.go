package mocks

import (
	"sync"

	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven"
)

// Ensure MockTokenInspector implements TokenInspector
var _ driven.TokenInspector = (*MockTokenInspector)(nil)

// MockTokenInspector reports the tokens marked expired as expired and every
// other token as unreadable, which makes callers fall back to the network.
type MockTokenInspector struct {
	mu      sync.RWMutex
	expired map[string]bool
}

// NewMockTokenInspector creates a new MockTokenInspector
func NewMockTokenInspector(expired ...string) *MockTokenInspector {
	m := &MockTokenInspector{expired: make(map[string]bool)}
	for _, t := range expired {
		m.expired[t] = true
	}
	return m
}

func (m *MockTokenInspector) Inspect(token string) (*domain.TokenClaims, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.expired[token] {
		return nil, domain.ErrTokenExpired
	}
	return nil, domain.ErrTokenInvalid
}
