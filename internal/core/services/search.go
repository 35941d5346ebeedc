package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven"
	"github.com/custodia-labs/docsum/internal/core/ports/driving"
)

// Ensure searchController implements SearchController
var _ driving.SearchController = (*searchController)(nil)

// SearchConfig holds configuration for the search controller
type SearchConfig struct {
	Documents   driven.DocumentAPI
	Catalog     driving.CatalogService
	Credentials driving.CredentialSource
	Debounce    time.Duration                // Delay applied by Schedule
	OnView      func(domain.DocumentSetView) // Optional: receives every applied view
	Logger      *zap.Logger
}

// searchController implements the SearchController interface.
// An empty query is served by the catalog, anything else by the search endpoint.
type searchController struct {
	docs     driven.DocumentAPI
	catalog  driving.CatalogService
	creds    driving.CredentialSource
	debounce time.Duration
	onView   func(domain.DocumentSetView)
	logger   *zap.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	query   domain.DocumentQuery
	view    domain.DocumentSetView
	issued  uint64
	pending uint64 // Schedule generation
	timer   *time.Timer
	closed  bool
}

// NewSearchController creates a new SearchController
func NewSearchController(cfg SearchConfig) driving.SearchController {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &searchController{
		docs:     cfg.Documents,
		catalog:  cfg.Catalog,
		creds:    cfg.Credentials,
		debounce: cfg.Debounce,
		onView:   cfg.OnView,
		logger:   logger.Named("search"),
		baseCtx:  ctx,
		cancel:   cancel,
		view:     domain.DocumentSetView{Mode: domain.RetrievalList, Documents: []*domain.Document{}},
	}
}

// Update sets query text and filter and retrieves the matching set
func (c *searchController) Update(ctx context.Context, query string, filter domain.FileType) domain.DocumentSetView {
	return c.Apply(ctx, c.next(query, filter))
}

// SetQuery changes the query text and keeps the filter
func (c *searchController) SetQuery(ctx context.Context, query string) domain.DocumentSetView {
	c.mu.Lock()
	filter := c.query.FileType
	c.mu.Unlock()
	return c.Update(ctx, query, filter)
}

// SetFilter changes the filter and keeps the query text
func (c *searchController) SetFilter(ctx context.Context, filter domain.FileType) domain.DocumentSetView {
	c.mu.Lock()
	query := c.query.Text
	c.mu.Unlock()
	return c.Update(ctx, query, filter)
}

// Apply runs q immediately, cancelling any scheduled retrieval
func (c *searchController) Apply(ctx context.Context, q domain.DocumentQuery) domain.DocumentSetView {
	c.mu.Lock()
	c.pending++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	return c.apply(ctx, q)
}

// Schedule runs Update after the debounce delay. A later call replaces an
// earlier one that has not started yet.
func (c *searchController) Schedule(query string, filter domain.FileType) {
	q := c.next(query, filter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.pending++
	gen := c.pending
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		if gen != c.pending || c.closed {
			c.mu.Unlock()
			return
		}
		c.timer = nil
		c.mu.Unlock()
		c.apply(c.baseCtx, q)
	})
}

// View returns the most recently applied view
func (c *searchController) View() domain.DocumentSetView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Query returns the current query state
func (c *searchController) Query() domain.DocumentQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Close stops pending retrievals
func (c *searchController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.cancel()
}

// next derives the query for new text and filter; paging restarts
func (c *searchController) next(text string, filter domain.FileType) domain.DocumentQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.query
	q.Text = text
	q.FileType = filter
	q.Offset = 0
	return q
}

func (c *searchController) apply(ctx context.Context, q domain.DocumentQuery) domain.DocumentSetView {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.query = q
	c.mu.Unlock()

	view := domain.DocumentSetView{Mode: q.Mode(), Query: q, Seq: seq, Documents: []*domain.Document{}}

	switch q.Mode() {
	case domain.RetrievalSearch:
		docs, err := c.docs.Search(ctx, c.creds.Token(), q.Normalize())
		if err != nil {
			view.Err = domain.Interpret(domain.KindRetrieval, err, "search failed")
		} else if docs != nil {
			view.Documents = docs
		}
	default:
		snap, err := c.refreshCatalog(ctx, seq, q.FileType)
		switch {
		case errors.Is(err, domain.ErrSuperseded):
			return c.View()
		case err != nil:
			view.Err = domain.Interpret(domain.KindRetrieval, err, "could not load documents")
		default:
			view.Documents = snap.Documents
		}
	}

	c.mu.Lock()
	if seq != c.issued {
		current := c.view
		c.mu.Unlock()
		c.logger.Debug("discarding superseded result", zap.Uint64("seq", seq), zap.String("mode", string(view.Mode)))
		return current
	}
	c.view = view
	onView := c.onView
	c.mu.Unlock()

	if view.Err != nil {
		c.logger.Warn("retrieval failed", zap.String("mode", string(view.Mode)), zap.Error(view.Err.Err))
	}
	if onView != nil {
		onView(view)
	}
	return view
}

// catalogAttempts bounds how often a listing is reissued after another
// caller's refresh overtook it
const catalogAttempts = 3

// refreshCatalog lists through the catalog. When a refresh issued elsewhere
// overtakes this one, the catalog's snapshot is adopted if it was fetched for
// the same filter; otherwise the listing is reissued while seq is current.
func (c *searchController) refreshCatalog(ctx context.Context, seq uint64, filter domain.FileType) (*domain.CatalogSnapshot, error) {
	var err error
	for attempt := 0; attempt < catalogAttempts; attempt++ {
		var snap *domain.CatalogSnapshot
		snap, err = c.catalog.Refresh(ctx, filter)
		if !errors.Is(err, domain.ErrSuperseded) {
			return snap, err
		}
		c.mu.Lock()
		current := seq == c.issued
		c.mu.Unlock()
		if !current {
			return nil, err
		}
		if latest := c.catalog.Snapshot(); !latest.Empty() && latest.Filter == filter {
			return latest, nil
		}
		c.logger.Debug("catalog listing overtaken, reissuing", zap.String("filter", string(filter)), zap.Int("attempt", attempt+1))
	}
	return nil, err
}
