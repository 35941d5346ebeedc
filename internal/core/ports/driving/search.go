package driving

import (
	"context"

	"github.com/custodia-labs/docsum/internal/core/domain"
)

// SearchController keeps the query state and the document set it selects
type SearchController interface {
	// Update sets the query and filter and retrieves the matching set.
	// Failures are recorded in the returned view.
	Update(ctx context.Context, query string, filter domain.FileType) domain.DocumentSetView

	// SetQuery changes only the query text
	SetQuery(ctx context.Context, query string) domain.DocumentSetView

	// SetFilter changes only the file type filter
	SetFilter(ctx context.Context, filter domain.FileType) domain.DocumentSetView

	// Apply runs a full query including dates and paging
	Apply(ctx context.Context, query domain.DocumentQuery) domain.DocumentSetView

	// Schedule is the debounced form of Update. The view is published
	// through the controller's view callback.
	Schedule(query string, filter domain.FileType)

	// View returns the most recently applied view
	View() domain.DocumentSetView

	// Query returns the current query state
	Query() domain.DocumentQuery

	// Close stops any pending debounced retrieval
	Close()
}
