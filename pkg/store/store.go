package store

import (
	"context"
	"time"
)

// Store is the typed façade every other package uses to reach the external
// key-value service. Implementations must not apply their own retry policy;
// that is a caller concern (spec §4.A).
type Store interface {
	// Get returns the string value of key, or ("", false, nil) if absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes key unconditionally with no expiry.
	Set(ctx context.Context, key, value string) error

	// SetWithTTL writes key with an expiry of ttl.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// IncrBy atomically adds delta to the integer at key (creating it at 0
	// first if absent) and returns the new value.
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)

	// Expire resets the TTL on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Delete removes zero or more keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// SetAdd adds members to the set at key.
	SetAdd(ctx context.Context, key string, members ...string) error

	// SetMembers returns all members of the set at key, in unspecified order.
	SetMembers(ctx context.Context, key string) ([]string, error)

	// SetCardinality returns the number of members in the set at key.
	SetCardinality(ctx context.Context, key string) (int64, error)

	// ListPush appends values to the tail of the list at key, preserving
	// the order given.
	ListPush(ctx context.Context, key string, values ...string) error

	// ListRange returns the list at key from start to stop inclusive;
	// stop == -1 means "to the end".
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Pipeline returns a new, empty batch of operations. Queue operations
	// on it with the same-named methods, then call Commit to apply them
	// as a single atomic transaction.
	Pipeline() Pipeline

	// Ping verifies connectivity to the backing service.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store connection.
	Close() error
}

// Pipeline accumulates writes to be committed as a single atomic
// transaction. Operations queued on a Pipeline are not visible to readers
// until Commit succeeds; invariant 6 of spec §3 (payload-before-pointer)
// relies on this.
type Pipeline interface {
	SetWithTTL(key, value string, ttl time.Duration)
	IncrBy(key string, delta int64)
	Expire(key string, ttl time.Duration)
	Delete(keys ...string)
	SetAdd(key string, members ...string)
	ListPush(key string, values ...string)

	// Commit executes every queued operation atomically.
	Commit(ctx context.Context) error
}
