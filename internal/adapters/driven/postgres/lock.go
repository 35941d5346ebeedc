package postgres

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsum/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*LeaseLock)(nil)

// LeaseLock implements DistributedLock with rows in docsum_locks.
// A lease belongs to one owner until it expires, so it works across the pool's
// connections and survives a crashed holder.
type LeaseLock struct {
	db      *DB
	ownerID string
}

// NewLeaseLock creates a lock owned by this process
func NewLeaseLock(db *DB) *LeaseLock {
	hostname, _ := os.Hostname()
	return &LeaseLock{
		db:      db,
		ownerID: fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString()),
	}
}

// Acquire inserts the lease, or takes over an expired one
func (l *LeaseLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO docsum_locks (name, owner, expires_at)
		VALUES ($1, $2, NOW() + make_interval(secs => $3))
		ON CONFLICT (name) DO UPDATE SET
			owner = EXCLUDED.owner,
			expires_at = EXCLUDED.expires_at
		WHERE docsum_locks.expires_at < NOW()
	`
	res, err := l.db.ExecContext(ctx, query, name, l.ownerID, ttl.Seconds())
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return n == 1, nil
}

// Release deletes the lease if this process still owns it
func (l *LeaseLock) Release(ctx context.Context, name string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM docsum_locks WHERE name = $1 AND owner = $2`, name, l.ownerID)
	if err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}
