package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven"
	"github.com/custodia-labs/docsum/internal/core/ports/driving"
)

// Ensure summaryWorkflow implements SummaryWorkflow
var _ driving.SummaryWorkflow = (*summaryWorkflow)(nil)

// SummaryConfig holds the dependencies of the summary workflow
type SummaryConfig struct {
	Summaries   driven.SummaryAPI
	Catalog     driving.CatalogService
	Credentials driving.CredentialSource
	Logger      *zap.Logger
}

// summaryWorkflow implements the SummaryWorkflow interface.
// Only the most recently issued Generate may move the state out of Pending.
type summaryWorkflow struct {
	summaries driven.SummaryAPI
	catalog   driving.CatalogService
	creds     driving.CredentialSource
	logger    *zap.Logger

	mu       sync.Mutex
	selected int64
	state    domain.SummaryState
	issued   uint64
}

// NewSummaryWorkflow creates a new SummaryWorkflow
func NewSummaryWorkflow(cfg SummaryConfig) driving.SummaryWorkflow {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &summaryWorkflow{
		summaries: cfg.Summaries,
		catalog:   cfg.Catalog,
		creds:     cfg.Credentials,
		logger:    logger.Named("summary"),
		state:     domain.SummaryState{Status: domain.SummaryIdle},
	}
}

// SelectDocument records the target of the next Generate
func (w *summaryWorkflow) SelectDocument(id int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selected = id
}

// Selected returns the selected document id
func (w *summaryWorkflow) Selected() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected
}

// Documents returns the documents available for selection
func (w *summaryWorkflow) Documents() []*domain.Document {
	return w.catalog.Snapshot().Documents
}

// State returns the state of the most recently issued request
func (w *summaryWorkflow) State() domain.SummaryState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Generate summarizes the selected document and refreshes the catalog on success
func (w *summaryWorkflow) Generate(ctx context.Context) (domain.SummaryState, error) {
	w.mu.Lock()
	id := w.selected
	if id == 0 {
		st := w.state
		w.mu.Unlock()
		return st, &domain.ClientError{
			Kind:    domain.KindSummary,
			Cause:   domain.CauseNoSelection,
			Message: "please select a document",
		}
	}
	token := w.creds.Token()
	if token == "" {
		st := w.state
		w.mu.Unlock()
		return st, &domain.ClientError{
			Kind:    domain.KindSummary,
			Cause:   domain.CauseUnauthenticated,
			Message: "please log in to generate summaries",
			Err:     domain.ErrNotAuthenticated,
		}
	}
	w.issued++
	seq := w.issued
	w.state = domain.SummaryState{Status: domain.SummaryPending, DocumentID: id, Seq: seq}
	w.mu.Unlock()

	res, err := w.summaries.Generate(ctx, token, id)
	info := res.Info()
	if err == nil && info == nil {
		err = errors.New("service returned an empty summary")
	}

	w.mu.Lock()
	if seq != w.issued {
		st := w.state
		w.mu.Unlock()
		w.logger.Debug("discarding superseded summary", zap.Int64("document_id", id), zap.Uint64("seq", seq))
		return st, domain.ErrSuperseded
	}
	if err != nil {
		ce := domain.Interpret(domain.KindSummary, err, "summary generation failed")
		w.state = domain.SummaryState{Status: domain.SummaryFailed, DocumentID: id, Err: ce, Seq: seq}
		st := w.state
		w.mu.Unlock()
		w.logger.Warn("summary generation failed", zap.Int64("document_id", id), zap.Error(err))
		return st, ce
	}
	w.state = domain.SummaryState{Status: domain.SummarySucceeded, DocumentID: id, Result: info, Seq: seq}
	st := w.state
	w.mu.Unlock()

	w.logger.Info("summary generated", zap.Int64("document_id", id), zap.Int("keywords", len(info.KeywordList())))

	w.reloadCatalog(ctx)
	return st, nil
}

// Existing reads a previously generated summary
func (w *summaryWorkflow) Existing(ctx context.Context, id int64) (*domain.StoredSummary, error) {
	token := w.creds.Token()
	if token == "" {
		return nil, &domain.ClientError{
			Kind:    domain.KindSummary,
			Cause:   domain.CauseUnauthenticated,
			Message: "please log in to view summaries",
			Err:     domain.ErrNotAuthenticated,
		}
	}
	stored, err := w.summaries.Summary(ctx, token, id)
	if err != nil {
		return nil, domain.Interpret(domain.KindSummary, err, "could not load summary")
	}
	return stored, nil
}

// Ask asks a question about a document
func (w *summaryWorkflow) Ask(ctx context.Context, id int64, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.NewValidationError(domain.KindSummary, "question_required", "please enter a question")
	}
	if id == 0 {
		return nil, &domain.ClientError{
			Kind:    domain.KindSummary,
			Cause:   domain.CauseNoSelection,
			Message: "please select a document",
		}
	}
	token := w.creds.Token()
	if token == "" {
		return nil, &domain.ClientError{
			Kind:    domain.KindSummary,
			Cause:   domain.CauseUnauthenticated,
			Message: "please log in to ask questions",
			Err:     domain.ErrNotAuthenticated,
		}
	}
	answer, err := w.summaries.Ask(ctx, token, id, question)
	if err != nil {
		return nil, domain.Interpret(domain.KindSummary, err, "could not answer the question")
	}
	return answer, nil
}

// Batch summarizes ids in one request. Duplicate ids are sent once.
func (w *summaryWorkflow) Batch(ctx context.Context, ids []int64) (*domain.BatchSummaryResult, error) {
	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, &domain.ClientError{
			Kind:    domain.KindSummary,
			Cause:   domain.CauseNoSelection,
			Message: "please select at least one document",
		}
	}
	token := w.creds.Token()
	if token == "" {
		return nil, &domain.ClientError{
			Kind:    domain.KindSummary,
			Cause:   domain.CauseUnauthenticated,
			Message: "please log in to generate summaries",
			Err:     domain.ErrNotAuthenticated,
		}
	}

	res, err := w.summaries.BatchGenerate(ctx, token, unique)
	if err != nil {
		return nil, domain.Interpret(domain.KindSummary, err, "batch summarization failed")
	}
	w.logger.Info("batch summarized", zap.Int("requested", len(unique)), zap.Int("successful", res.Successful))

	if res.Successful > 0 {
		w.reloadCatalog(ctx)
	}
	return res, nil
}

// reloadCatalog refetches the catalog with its most recently requested filter
func (w *summaryWorkflow) reloadCatalog(ctx context.Context) {
	w.catalog.Invalidate()
	if _, err := w.catalog.EnsureFresh(ctx); err != nil && !errors.Is(err, domain.ErrSuperseded) {
		w.logger.Warn("catalog refresh after summary failed", zap.Error(err))
	}
}
