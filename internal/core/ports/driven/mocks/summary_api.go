package mocks

import (
	"context"
	"net/http"
	"sync"

	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven"
)

// Ensure MockSummaryAPI implements SummaryAPI
var _ driven.SummaryAPI = (*MockSummaryAPI)(nil)

// MockSummaryAPI is a mock implementation of SummaryAPI for testing.
// Generated summaries are also written to the linked document service.
type MockSummaryAPI struct {
	mu      sync.Mutex
	results map[int64]*domain.SummaryResult
	stored  map[int64]*domain.SummaryInfo
	docs    *MockDocumentAPI

	GenerateErr error
	SummaryErr  error
	AskErr      error
	BatchErr    error

	// GenerateHook runs before Generate returns, outside the lock
	GenerateHook func(id int64)

	generated []int64
}

// NewMockSummaryAPI creates a new MockSummaryAPI. docs may be nil.
func NewMockSummaryAPI(docs *MockDocumentAPI) *MockSummaryAPI {
	return &MockSummaryAPI{
		results: make(map[int64]*domain.SummaryResult),
		stored:  make(map[int64]*domain.SummaryInfo),
		docs:    docs,
	}
}

// SetResult sets what Generate returns for id
func (m *MockSummaryAPI) SetResult(id int64, summary, keywords string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[id] = &domain.SummaryResult{Message: "Summary generated", Summary: summary, Keywords: keywords}
}

func (m *MockSummaryAPI) Generate(ctx context.Context, token string, id int64) (*domain.SummaryResult, error) {
	m.mu.Lock()
	m.generated = append(m.generated, id)
	hook := m.GenerateHook
	err := m.GenerateErr
	res, ok := m.results[id]
	m.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, &domain.APIError{StatusCode: http.StatusUnauthorized, Detail: "Not authenticated"}
	}
	if !ok {
		return nil, &domain.APIError{StatusCode: http.StatusNotFound, Detail: "Document not found"}
	}

	info := res.Info()
	m.mu.Lock()
	m.stored[id] = info
	m.mu.Unlock()
	if m.docs != nil {
		m.docs.Summarize(id, info)
	}
	out := *res
	return &out, nil
}

func (m *MockSummaryAPI) Summary(ctx context.Context, token string, id int64) (*domain.StoredSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SummaryErr != nil {
		return nil, m.SummaryErr
	}
	return &domain.StoredSummary{DocumentID: id, Summary: m.stored[id]}, nil
}

func (m *MockSummaryAPI) Ask(ctx context.Context, token string, id int64, question string) (*domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AskErr != nil {
		return nil, m.AskErr
	}
	return &domain.Answer{Question: question, Answer: "answer to " + question, DocumentID: id}, nil
}

func (m *MockSummaryAPI) BatchGenerate(ctx context.Context, token string, ids []int64) (*domain.BatchSummaryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BatchErr != nil {
		return nil, m.BatchErr
	}
	if token == "" {
		return nil, &domain.APIError{StatusCode: http.StatusUnauthorized, Detail: "Not authenticated"}
	}

	out := &domain.BatchSummaryResult{Items: make([]domain.BatchSummaryItem, 0, len(ids)), Processed: len(ids)}
	for _, id := range ids {
		m.generated = append(m.generated, id)
		res, ok := m.results[id]
		if !ok || res.Info() == nil {
			out.Items = append(out.Items, domain.BatchSummaryItem{DocumentID: id, Error: "Document not found or has no content"})
			continue
		}
		info := res.Info()
		m.stored[id] = info
		if m.docs != nil {
			m.docs.Summarize(id, info)
		}
		out.Items = append(out.Items, domain.BatchSummaryItem{DocumentID: id, Success: true, Summary: info})
		out.Successful++
	}
	return out, nil
}

// Generated returns the ids Generate was called with
func (m *MockSummaryAPI) Generated() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.generated...)
}
