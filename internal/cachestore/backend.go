// Package cachestore implements the uniform storage-backend contract of
// spec.md §4.2: get/put/del/shutdown over an in-memory LRU, SQLite,
// Redis and an embedded single-file KV store.
package cachestore

import (
	"context"
	"time"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// Entry is a resting Ready cache value: an embed plus the wall-clock
// instant it stops being valid. Backends never store Errored states
// (spec.md §4.3: persistent tiers never cache errors); the coordinator
// keeps those in its own L1 only.
type Entry struct {
	Embed     *embedmodel.EmbedV1
	ExpiresAt time.Time
}

// Backend is the contract every storage tier satisfies.
//
// Get returns (entry, true, nil) on a live hit, (zero, false, nil) on a
// clean miss (absent or expired — expired rows MAY be deleted
// opportunistically, but a deserialize failure must not delete data,
// per spec.md §9 Q2). Put is an idempotent upsert. Del is an idempotent
// delete. Shutdown flushes/compacts/disconnects and must be safe to
// call exactly once.
type Backend interface {
	Name() string
	Get(ctx context.Context, now time.Time, key []byte) (Entry, bool, error)
	Put(ctx context.Context, key []byte, e Entry) error
	Del(ctx context.Context, key []byte) error
	Shutdown(ctx context.Context) error
}
