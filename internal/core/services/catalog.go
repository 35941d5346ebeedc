package services

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven"
	"github.com/custodia-labs/docsum/internal/core/ports/driving"
)

// Ensure catalogService implements CatalogService
var _ driving.CatalogService = (*catalogService)(nil)

const (
	snapshotKey = "catalog:snapshot"
	freshKey    = "catalog:fresh"
)

// CatalogConfig holds configuration for the catalog service
type CatalogConfig struct {
	Documents      driven.DocumentAPI
	Credentials    driving.CredentialSource
	TTL            time.Duration // How long a snapshot counts as fresh (0: until invalidated)
	AllowAnonymous bool          // List without a token and let the server decide
	Logger         *zap.Logger
	Now            func() time.Time
}

// catalogService implements the CatalogService interface.
// The snapshot never expires; a separate marker with the TTL records freshness.
type catalogService struct {
	docs      driven.DocumentAPI
	creds     driving.CredentialSource
	ttl       time.Duration
	anonymous bool
	logger    *zap.Logger
	now       func() time.Time

	cache *cache.Cache

	mu         sync.Mutex
	issued     uint64
	generation uint64 // bumped by Invalidate
	filter     domain.FileType
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(cfg CatalogConfig) driving.CatalogService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &catalogService{
		docs:      cfg.Documents,
		creds:     cfg.Credentials,
		ttl:       ttl,
		anonymous: cfg.AllowAnonymous,
		logger:    logger.Named("catalog"),
		now:       now,
		cache:     cache.New(cache.NoExpiration, 0),
	}
}

// Refresh fetches the document list and replaces the snapshot
func (c *catalogService) Refresh(ctx context.Context, filter domain.FileType) (*domain.CatalogSnapshot, error) {
	token := c.creds.Token()
	if token == "" && !c.anonymous {
		return nil, &domain.ClientError{
			Kind:    domain.KindRetrieval,
			Cause:   domain.CauseUnauthenticated,
			Message: "please log in to view documents",
			Err:     domain.ErrNotAuthenticated,
		}
	}

	c.mu.Lock()
	c.issued++
	seq, gen := c.issued, c.generation
	c.filter = filter
	c.mu.Unlock()

	docs, err := c.docs.List(ctx, token, filter)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.issued {
		c.logger.Debug("discarding superseded catalog response", zap.Uint64("seq", seq), zap.Uint64("latest", c.issued))
		return nil, domain.ErrSuperseded
	}
	if err != nil {
		c.logger.Warn("catalog refresh failed", zap.String("filter", string(filter)), zap.Error(err))
		return nil, domain.Interpret(domain.KindRetrieval, err, "could not load documents")
	}

	snap := domain.NewCatalogSnapshot(docs, filter, c.now())
	c.cache.Set(snapshotKey, snap, cache.NoExpiration)
	// A response to a request issued before an invalidation may predate the
	// change that caused it, so it does not count as fresh.
	if gen == c.generation {
		c.cache.Set(freshKey, seq, c.ttl)
	}

	c.logger.Debug("catalog refreshed",
		zap.Int("count", snap.Stats.TotalCount),
		zap.Int64("total_size", snap.Stats.TotalSize),
		zap.String("filter", string(filter)),
	)
	return snap, nil
}

// Snapshot returns the current snapshot, empty before the first refresh
func (c *catalogService) Snapshot() *domain.CatalogSnapshot {
	if v, ok := c.cache.Get(snapshotKey); ok {
		return v.(*domain.CatalogSnapshot)
	}
	return &domain.CatalogSnapshot{Documents: []*domain.Document{}}
}

// Invalidate marks the snapshot stale
func (c *catalogService) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.cache.Delete(freshKey)
}

// Stale reports whether the snapshot should be refetched
func (c *catalogService) Stale() bool {
	_, fresh := c.cache.Get(freshKey)
	return !fresh
}

// EnsureFresh refreshes with the most recently requested filter when stale
func (c *catalogService) EnsureFresh(ctx context.Context) (*domain.CatalogSnapshot, error) {
	if !c.Stale() {
		return c.Snapshot(), nil
	}
	c.mu.Lock()
	filter := c.filter
	c.mu.Unlock()
	return c.Refresh(ctx, filter)
}

// Get fetches one document
func (c *catalogService) Get(ctx context.Context, id int64) (*domain.Document, error) {
	token := c.creds.Token()
	if token == "" {
		return nil, &domain.ClientError{
			Kind:    domain.KindRetrieval,
			Cause:   domain.CauseUnauthenticated,
			Message: "please log in to view documents",
			Err:     domain.ErrNotAuthenticated,
		}
	}
	doc, err := c.docs.Get(ctx, token, id)
	if err != nil {
		return nil, domain.Interpret(domain.KindRetrieval, err, "could not load document")
	}
	return doc, nil
}

// Delete removes a document server-side and invalidates the snapshot
func (c *catalogService) Delete(ctx context.Context, id int64) error {
	token := c.creds.Token()
	if token == "" {
		return &domain.ClientError{
			Kind:    domain.KindRetrieval,
			Cause:   domain.CauseUnauthenticated,
			Message: "please log in to delete documents",
			Err:     domain.ErrNotAuthenticated,
		}
	}
	if err := c.docs.Delete(ctx, token, id); err != nil {
		return domain.Interpret(domain.KindRetrieval, err, "could not delete document")
	}
	c.Invalidate()
	c.logger.Info("document deleted", zap.Int64("document_id", id))
	return nil
}
