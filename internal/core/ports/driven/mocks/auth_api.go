package mocks

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven"
)

// Ensure MockAuthAPI implements AuthAPI
var _ driven.AuthAPI = (*MockAuthAPI)(nil)

type account struct {
	password string
	token    string
	user     *domain.User
}

// MockAuthAPI is an in-memory identity service for testing.
// Unknown tokens are rejected with a 401 like the real service.
type MockAuthAPI struct {
	mu       sync.Mutex
	accounts map[string]*account
	byToken  map[string]*domain.User
	nextID   int64
	rotation int

	MeErr       error
	LoginErr    error
	RegisterErr error
	RefreshErr  error

	// MeHook runs before Me returns, outside the lock
	MeHook func(token string)

	meCalls    int
	loginCalls int
}

// NewMockAuthAPI creates a new MockAuthAPI
func NewMockAuthAPI() *MockAuthAPI {
	return &MockAuthAPI{
		accounts: make(map[string]*account),
		byToken:  make(map[string]*domain.User),
		nextID:   1,
	}
}

// AddAccount registers an account whose login returns token
func (m *MockAuthAPI) AddAccount(email, password, token string, user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	}
	m.accounts[email] = &account{password: password, token: token, user: user}
	m.byToken[token] = user
}

// AcceptToken makes Me accept token for user
func (m *MockAuthAPI) AcceptToken(token string, user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byToken[token] = user
}

// RevokeToken makes Me reject token
func (m *MockAuthAPI) RevokeToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byToken, token)
}

func (m *MockAuthAPI) Me(ctx context.Context, token string) (*domain.User, error) {
	m.mu.Lock()
	m.meCalls++
	hook := m.MeHook
	err := m.MeErr
	user, ok := m.byToken[token]
	m.mu.Unlock()

	if hook != nil {
		hook(token)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.APIError{StatusCode: http.StatusUnauthorized, Detail: "Could not validate credentials"}
	}
	u := *user
	return &u, nil
}

func (m *MockAuthAPI) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginCalls++
	if m.LoginErr != nil {
		return nil, m.LoginErr
	}
	acc, ok := m.accounts[req.Email]
	if !ok || acc.password != req.Password {
		return nil, &domain.APIError{StatusCode: http.StatusUnauthorized, Detail: "Incorrect email or password"}
	}
	u := *acc.user
	return &domain.LoginResponse{Token: acc.token, TokenType: "bearer", User: &u}, nil
}

func (m *MockAuthAPI) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RegisterErr != nil {
		return nil, m.RegisterErr
	}
	if _, exists := m.accounts[req.Email]; exists {
		return nil, &domain.APIError{StatusCode: http.StatusBadRequest, Detail: "Email already registered"}
	}
	user := &domain.User{ID: m.nextID, Email: req.Email, Username: req.Username, FullName: req.FullName, Active: true}
	m.nextID++
	m.accounts[req.Email] = &account{password: req.Password, token: fmt.Sprintf("token-%d", user.ID), user: user}
	u := *user
	return &u, nil
}

func (m *MockAuthAPI) Refresh(ctx context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RefreshErr != nil {
		return "", m.RefreshErr
	}
	user, ok := m.byToken[token]
	if !ok {
		return "", &domain.APIError{StatusCode: http.StatusUnauthorized}
	}
	m.rotation++
	next := fmt.Sprintf("%s.r%d", token, m.rotation)
	m.byToken[next] = user
	return next, nil
}

// MeCalls returns how many identity checks were made
func (m *MockAuthAPI) MeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meCalls
}

// LoginCalls returns how many login attempts were made
func (m *MockAuthAPI) LoginCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginCalls
}
