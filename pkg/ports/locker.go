package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes a conversation across replicas sharing a store.
// The in-process lock of session.Manager is always taken first.
type DistributedLocker interface {
	// Lock waits for key until acquired or ctx is done. A holder that never
	// unlocks loses the lock after ttl.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
