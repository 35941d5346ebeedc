package driven

import (
	"context"

	"github.com/custodia-labs/docsum/internal/core/domain"
)

// DocumentAPI is the document service's document surface.
// token may be empty for the listing and search calls.
type DocumentAPI interface {
	// List returns the user's documents, optionally filtered by type
	List(ctx context.Context, token string, filter domain.FileType) ([]*domain.Document, error)

	// Search runs a server-side search
	Search(ctx context.Context, token string, query domain.DocumentQuery) ([]*domain.Document, error)

	// Get returns one document
	Get(ctx context.Context, token string, id int64) (*domain.Document, error)

	// Delete removes a document and its file
	Delete(ctx context.Context, token string, id int64) error

	// Upload sends a validated payload as a multipart form
	Upload(ctx context.Context, token string, payload *domain.UploadPayload) (*domain.Document, error)
}

// SummaryAPI is the document service's AI surface
type SummaryAPI interface {
	// Generate creates (or regenerates) the summary and keywords for a document
	Generate(ctx context.Context, token string, id int64) (*domain.SummaryResult, error)

	// Summary returns a previously generated summary
	Summary(ctx context.Context, token string, id int64) (*domain.StoredSummary, error)

	// Ask answers a question about a document's content
	Ask(ctx context.Context, token string, id int64, question string) (*domain.Answer, error)

	// BatchGenerate summarizes several documents in one request.
	// Per-document failures are reported in the items, not as an error.
	BatchGenerate(ctx context.Context, token string, ids []int64) (*domain.BatchSummaryResult, error)
}
