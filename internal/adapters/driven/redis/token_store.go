package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/custodia-labs/docsum/internal/adapters/driven/tokenstore"
	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStoreConfig holds dependencies for the Redis token store
type TokenStoreConfig struct {
	Client *redis.Client

	// Key overrides driven.SessionTokenKey
	Key string

	// Sealer encrypts the stored value. Nil stores it as is.
	Sealer *tokenstore.Sealer

	// Inspector, when set, makes the key expire together with the token
	Inspector driven.TokenInspector

	Logger *zap.Logger
	Now    func() time.Time
}

// TokenStore implements driven.TokenStore on a single Redis key.
// When the token carries an exp claim the key uses Redis TTL for expiration.
type TokenStore struct {
	client    *redis.Client
	key       string
	sealer    *tokenstore.Sealer
	inspector driven.TokenInspector
	logger    *zap.Logger
	now       func() time.Time
}

// NewTokenStore creates a new Redis-backed TokenStore
func NewTokenStore(cfg TokenStoreConfig) *TokenStore {
	key := cfg.Key
	if key == "" {
		key = driven.SessionTokenKey
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenStore{
		client:    cfg.Client,
		key:       key,
		sealer:    cfg.Sealer,
		inspector: cfg.Inspector,
		logger:    logger.Named("redis_token_store"),
		now:       now,
	}
}

// Load returns the stored token, or "" when the key is missing or expired
func (s *TokenStore) Load(ctx context.Context) (string, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	token, err := s.sealer.Decode(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	return token, nil
}

// Save stores the token, with a TTL matching its exp claim when known
func (s *TokenStore) Save(ctx context.Context, token string) error {
	ttl := s.ttl(token)
	if ttl < 0 {
		// Token already expired, nothing worth keeping
		s.logger.Debug("not persisting expired token")
		return s.Clear(ctx)
	}

	data, err := s.sealer.Encode(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear deletes the key
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// ttl returns 0 for no expiration and a negative value for an expired token
func (s *TokenStore) ttl(token string) time.Duration {
	if s.inspector == nil {
		return 0
	}
	claims, err := s.inspector.Inspect(token)
	if errors.Is(err, domain.ErrTokenExpired) {
		return -1
	}
	if err != nil || !claims.HasExpiry() {
		// Unreadable tokens are still stored; the server decides
		return 0
	}
	ttl := time.Unix(claims.ExpiresAt, 0).Sub(s.now())
	if ttl <= 0 {
		return -1
	}
	return ttl
}
