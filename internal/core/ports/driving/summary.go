package driving

import (
	"context"

	"github.com/custodia-labs/docsum/internal/core/domain"
)

// SummaryWorkflow drives AI summarization of one document at a time
type SummaryWorkflow interface {
	// SelectDocument sets the document the next Generate targets. It does no I/O.
	SelectDocument(id int64)

	// Selected returns the selected document id, 0 if none
	Selected() int64

	// Documents returns the selectable documents from the catalog snapshot
	Documents() []*domain.Document

	// Generate summarizes the selected document
	Generate(ctx context.Context) (domain.SummaryState, error)

	// State returns the state of the most recently issued request
	State() domain.SummaryState

	// Existing reads a stored summary without generating one
	Existing(ctx context.Context, id int64) (*domain.StoredSummary, error)

	// Ask asks a question about a document
	Ask(ctx context.Context, id int64, question string) (*domain.Answer, error)

	// Batch summarizes several documents in one request without touching
	// the selection or State
	Batch(ctx context.Context, ids []int64) (*domain.BatchSummaryResult, error)
}
