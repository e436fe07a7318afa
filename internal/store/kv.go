// Package store implements the key-value persistence layer. Every namespace
// the service touches (collections, users, audit records, rate-limit
// counters) goes through the narrow KV interface so Redis can back
// production while tests use the in-memory variant.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("store: key not found")

// ErrConflict is returned when an optimistic update loses the race too many
// times in a row. Callers treat it as a transient failure.
var ErrConflict = errors.New("store: concurrent modification")

// KV is the minimal key-value contract the service needs. A zero ttl means
// the key never expires.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Incr atomically increments an integer counter, creating it with the
	// given ttl on first use. Used for fixed-window rate limiting.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Update applies fn to the current value of key under optimistic
	// concurrency control: if the key changes between the read and the
	// write the whole round is retried. fn receives nil when the key is
	// absent and returns the full replacement value.
	Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error
}

// Stores is the explicit namespace map handed to the dispatcher: one logical
// store per concern rather than ad hoc string-keyed lookup.
type Stores struct {
	Users  KV
	Audit  KV
	Videos KV
	Thumbs KV
	Client KV
}
