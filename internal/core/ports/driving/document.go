package driving

import (
	"context"

	"github.com/custodia-labs/docsum/internal/core/domain"
)

// CatalogService caches the user's document list and its statistics
type CatalogService interface {
	// Refresh fetches the list and replaces the snapshot.
	// A response overtaken by a newer Refresh returns domain.ErrSuperseded.
	Refresh(ctx context.Context, filter domain.FileType) (*domain.CatalogSnapshot, error)

	// Snapshot returns the current snapshot. It is empty before the first refresh.
	Snapshot() *domain.CatalogSnapshot

	// Invalidate marks the snapshot stale
	Invalidate()

	// Stale reports whether the snapshot should be refetched
	Stale() bool

	// EnsureFresh refreshes with the most recently requested filter when the snapshot is stale
	EnsureFresh(ctx context.Context) (*domain.CatalogSnapshot, error)

	// Get fetches one document
	Get(ctx context.Context, id int64) (*domain.Document, error)

	// Delete removes a document and invalidates the snapshot
	Delete(ctx context.Context, id int64) error
}
