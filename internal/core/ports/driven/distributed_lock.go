package driven

import (
	"context"
	"time"
)

// RefreshLockName names the lock held while a token is being rotated
const RefreshLockName = "token_refresh"

// DistributedLock serializes work across processes sharing one token store.
type DistributedLock interface {
	// Acquire attempts to take the named lock for ttl.
	// Returns false if another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release frees the named lock if this instance holds it
	Release(ctx context.Context, name string) error
}
