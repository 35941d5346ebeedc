package mocks

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven"
)

// Ensure MockDocumentAPI implements DocumentAPI
var _ driven.DocumentAPI = (*MockDocumentAPI)(nil)

// MockDocumentAPI is an in-memory document service for testing.
// Results are captured when a call starts; hooks run afterwards without the
// lock held so tests can hold a call open and release calls out of order.
type MockDocumentAPI struct {
	mu     sync.Mutex
	docs   []*domain.Document
	nextID int64
	now    func() time.Time

	// RequireToken rejects calls made without a token with a 401
	RequireToken bool

	ListErr   error
	SearchErr error
	GetErr    error
	DeleteErr error
	UploadErr error

	// ListHook runs before List returns; call is 1-based
	ListHook func(call int, filter domain.FileType)
	// SearchHook runs before Search returns; call is 1-based
	SearchHook func(call int, query domain.DocumentQuery)
	// UploadHook runs before Upload returns
	UploadHook func(payload *domain.UploadPayload)

	listCalls   []domain.FileType
	searchCalls []domain.DocumentQuery
	uploads     []*domain.UploadPayload
	tokens      []string
}

// NewMockDocumentAPI creates a service holding docs
func NewMockDocumentAPI(docs ...*domain.Document) *MockDocumentAPI {
	m := &MockDocumentAPI{nextID: 1, now: time.Now}
	for _, d := range docs {
		m.docs = append(m.docs, d)
		if d.ID >= m.nextID {
			m.nextID = d.ID + 1
		}
	}
	return m
}

// SetClock sets the time stamped on uploaded documents
func (m *MockDocumentAPI) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetDocuments replaces the stored documents
func (m *MockDocumentAPI) SetDocuments(docs ...*domain.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append([]*domain.Document(nil), docs...)
}

func (m *MockDocumentAPI) List(ctx context.Context, token string, filter domain.FileType) ([]*domain.Document, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, filter)
	m.tokens = append(m.tokens, token)
	call := len(m.listCalls)
	hook := m.ListHook
	err := m.authorize(token, m.ListErr)
	var out []*domain.Document
	if err == nil {
		out = m.match(func(d *domain.Document) bool {
			return filter == domain.FileTypeAll || d.FileType == filter
		})
	}
	m.mu.Unlock()

	if hook != nil {
		hook(call, filter)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MockDocumentAPI) Search(ctx context.Context, token string, query domain.DocumentQuery) ([]*domain.Document, error) {
	m.mu.Lock()
	m.searchCalls = append(m.searchCalls, query)
	m.tokens = append(m.tokens, token)
	call := len(m.searchCalls)
	hook := m.SearchHook
	err := m.authorize(token, m.SearchErr)
	var out []*domain.Document
	if err == nil {
		text := strings.ToLower(query.Text)
		out = m.match(func(d *domain.Document) bool {
			if query.FileType != domain.FileTypeAll && d.FileType != query.FileType {
				return false
			}
			return strings.Contains(strings.ToLower(d.Title), text) ||
				(d.Summary != nil && strings.Contains(strings.ToLower(d.Summary.Summary), text))
		})
	}
	m.mu.Unlock()

	if hook != nil {
		hook(call, query)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MockDocumentAPI) Get(ctx context.Context, token string, id int64) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.authorize(token, m.GetErr); err != nil {
		return nil, err
	}
	for _, d := range m.docs {
		if d.ID == id {
			c := *d
			return &c, nil
		}
	}
	return nil, &domain.APIError{StatusCode: http.StatusNotFound, Detail: "Document not found"}
}

func (m *MockDocumentAPI) Delete(ctx context.Context, token string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.authorize(token, m.DeleteErr); err != nil {
		return err
	}
	for i, d := range m.docs {
		if d.ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return &domain.APIError{StatusCode: http.StatusNotFound, Detail: "Document not found"}
}

func (m *MockDocumentAPI) Upload(ctx context.Context, token string, payload *domain.UploadPayload) (*domain.Document, error) {
	m.mu.Lock()
	m.uploads = append(m.uploads, payload)
	hook := m.UploadHook
	err := m.authorize(token, m.UploadErr)
	m.mu.Unlock()

	if hook != nil {
		hook(payload)
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc := &domain.Document{
		ID:        m.nextID,
		Title:     payload.Title,
		Filename:  payload.Filename,
		FileSize:  payload.Size,
		FileType:  payload.FileType,
		CreatedAt: m.now().UTC(),
	}
	m.nextID++
	m.docs = append(m.docs, doc)
	c := *doc
	return &c, nil
}

// Summarize attaches a summary to a stored document
func (m *MockDocumentAPI) Summarize(id int64, info *domain.SummaryInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.ID == id {
			d.Summary = info
		}
	}
}

// ListCalls returns the filters List was called with
func (m *MockDocumentAPI) ListCalls() []domain.FileType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.FileType(nil), m.listCalls...)
}

// SearchCalls returns the queries Search was called with
func (m *MockDocumentAPI) SearchCalls() []domain.DocumentQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.DocumentQuery(nil), m.searchCalls...)
}

// Uploads returns the payloads Upload was called with
func (m *MockDocumentAPI) Uploads() []*domain.UploadPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.UploadPayload(nil), m.uploads...)
}

// Tokens returns the tokens List and Search were called with
func (m *MockDocumentAPI) Tokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tokens...)
}

func (m *MockDocumentAPI) authorize(token string, injected error) error {
	if injected != nil {
		return injected
	}
	if m.RequireToken && token == "" {
		return &domain.APIError{StatusCode: http.StatusUnauthorized, Detail: "Not authenticated"}
	}
	return nil
}

func (m *MockDocumentAPI) match(keep func(*domain.Document) bool) []*domain.Document {
	out := make([]*domain.Document, 0, len(m.docs))
	for _, d := range m.docs {
		if keep(d) {
			c := *d
			out = append(out, &c)
		}
	}
	return out
}
