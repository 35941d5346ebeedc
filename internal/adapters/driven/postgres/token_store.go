package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/docsum/internal/adapters/driven/tokenstore"
	"github.com/custodia-labs/docsum/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore implements driven.TokenStore as one row of docsum_state
type TokenStore struct {
	db     *DB
	key    string
	sealer *tokenstore.Sealer
}

// NewTokenStore creates a new TokenStore. An empty key means driven.SessionTokenKey.
func NewTokenStore(db *DB, key string, sealer *tokenstore.Sealer) *TokenStore {
	if key == "" {
		key = driven.SessionTokenKey
	}
	return &TokenStore{db: db, key: key, sealer: sealer}
}

// Load returns the stored token, or "" when the row is missing
func (s *TokenStore) Load(ctx context.Context) (string, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM docsum_state WHERE key = $1`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}

	token, err := s.sealer.Decode(value)
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	return token, nil
}

// Save upserts the token row
func (s *TokenStore) Save(ctx context.Context, token string) error {
	value, err := s.sealer.Encode(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	query := `
		INSERT INTO docsum_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, s.key, value); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear deletes the token row
func (s *TokenStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM docsum_state WHERE key = $1`, s.key); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
