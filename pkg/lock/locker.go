package lock

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when the lock could not be taken before the context ended.
var ErrLockTimeout = errors.New("lock: timed out waiting for lock")

// Locker serializes work per key. The returned release func must be called
// exactly once; calling it more than once is a no-op.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
