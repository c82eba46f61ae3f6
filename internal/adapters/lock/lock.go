package lock

import (
	"context"
	"errors"
	"time"
)

// ErrLocked is returned when another holder owns the key.
var ErrLocked = errors.New("operation already in progress")

// ReleaseFunc releases an acquired lock.
type ReleaseFunc func(ctx context.Context) error

// Locker grants exclusive, expiring ownership of a key.
type Locker interface {
	// Acquire takes key for at most ttl without waiting.
	// POST: Returns a release func, or an error wrapping ErrLocked if the key is held
	Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}
