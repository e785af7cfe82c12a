// Package coalesce implements the singleflight coordinator of
// spec.md §4.4: it sits in front of the tiered cache and guarantees
// that at most one extraction runs per key at a time, fanning its
// result out to every concurrent caller for the same key.
//
// x/sync/singleflight is not used here (it is used elsewhere, for
// request-level URL dedup at the HTTP frontend, per the teacher's own
// use of it): its Do/DoChan collapses to a single success-or-error
// value and cannot express the three-way Hit/Pending/Miss split with a
// bounded-LRU resting cache underneath, so this coordinator is
// hand-rolled against the same sharded-bucket-lock idiom the teacher
// uses for its domain blocklist (prefixmap.go).
package coalesce

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/riverlink/embedsvc/internal/cachestore"
	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// Outcome is the three(+)-way result of Get.
type Outcome int

const (
	Miss Outcome = iota
	Hit
	Pending
	Errored
)

// GetResult is the return value of Coordinator.Get. Exactly one of its
// payload fields is meaningful, selected by Outcome.
type GetResult struct {
	Outcome   Outcome
	Embed     *embedmodel.EmbedV1 // Hit
	ExpiresAt time.Time           // Hit
	Err       error               // Errored
	Sub       *Subscription       // Pending
	Token     *Token              // Miss
}

// Token is handed to the Miss-owner; it threads back into Put so the
// coordinator can resolve the publisher and shard it was allocated
// under without a second map lookup.
type Token struct {
	key   string
	shard *shard
	pub   *publisher
}

// Tiered is the subset of *tieredcache.Cache the coordinator consults
// on an L1 miss and writes through to on a Ready/Errored resolution.
type Tiered interface {
	Get(ctx context.Context, now time.Time, key []byte) (cachestore.Entry, bool)
	Put(ctx context.Context, key []byte, entry cachestore.Entry)
	PutErrored(ctx context.Context, key []byte)
}

type shard struct {
	mu      sync.Mutex
	l1      *l1
	pending map[string]*publisher
}

// Coordinator is the C4 singleflight coordinator. Safe for concurrent
// use; construct one per service instance.
type Coordinator struct {
	shards []*shard
	mask   uint64
	tiered Tiered
	logger *zap.Logger
	nowFn  func() time.Time
}

const numShards = 64

// New builds a Coordinator with an L1 capacity split evenly across
// shards (a sharded-LRU approximation of a single global bound, the
// same tradeoff the teacher's prefix map makes for read concurrency
// over exact global ordering).
func New(tiered Tiered, logger *zap.Logger, l1Capacity int) *Coordinator {
	perShard := l1Capacity / numShards
	if perShard < 1 {
		perShard = 1
	}
	c := &Coordinator{
		shards: make([]*shard, numShards),
		mask:   numShards - 1,
		tiered: tiered,
		logger: logger,
		nowFn:  time.Now,
	}
	for i := range c.shards {
		c.shards[i] = &shard{l1: newL1(perShard), pending: make(map[string]*publisher)}
	}
	return c
}

func (c *Coordinator) shardFor(key string) *shard {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return c.shards[h.Sum64()&c.mask]
}

// Get implements spec.md §4.4's get(key) algorithm.
func (c *Coordinator) Get(ctx context.Context, key []byte) GetResult {
	k := string(key)
	sh := c.shardFor(k)

	sh.mu.Lock()
	if pub, ok := sh.pending[k]; ok {
		if !pub.isClosed() {
			sh.mu.Unlock()
			return GetResult{Outcome: Pending, Sub: &Subscription{pub: pub}}
		}
		delete(sh.pending, k)
	}

	now := c.nowFn()
	if st, ok := sh.l1.get(k, now); ok {
		sh.mu.Unlock()
		if st.Errored {
			return GetResult{Outcome: Errored, Err: st.Err}
		}
		return GetResult{Outcome: Hit, Embed: st.Ready, ExpiresAt: st.ExpiresAt}
	}
	sh.l1.delete(k) // drop expired entry, if any

	pub := newPublisher()
	sh.pending[k] = pub
	sh.mu.Unlock()

	// Tiered lookup happens with the bucket lock released: it may do
	// network-adjacent or disk I/O and must never block other shard
	// keys (or even other pending waiters on this shard).
	entry, ok := c.tiered.Get(ctx, now, key)
	if !ok {
		return GetResult{Outcome: Miss, Token: &Token{key: k, shard: sh, pub: pub}}
	}

	state := readyState(entry.Embed, entry.ExpiresAt)
	sh.mu.Lock()
	sh.l1.put(k, state)
	sh.mu.Unlock()

	pub.setValue(state)
	sh.mu.Lock()
	delete(sh.pending, k)
	sh.mu.Unlock()
	pub.close()

	return GetResult{Outcome: Hit, Embed: entry.Embed, ExpiresAt: entry.ExpiresAt}
}

// PutReady implements spec.md §4.4's put(key, token, state) algorithm
// for a successful extraction.
func (c *Coordinator) PutReady(ctx context.Context, token *Token, embed *embedmodel.EmbedV1, expiresAt time.Time) RestingState {
	return c.put(ctx, token, readyState(embed, expiresAt))
}

// PutErrored is put(key, token, state) for a failed extraction; the
// negative-cache entry carries its own short TTL (spec.md §7: 60s).
func (c *Coordinator) PutErrored(ctx context.Context, token *Token, err error, negativeTTL time.Duration) RestingState {
	return c.put(ctx, token, erroredState(err, c.nowFn().Add(negativeTTL)))
}

func (c *Coordinator) put(ctx context.Context, token *Token, state RestingState) RestingState {
	sh := token.shard
	k := token.key

	sh.mu.Lock()
	final := state
	propagate := true
	if existing, ok := sh.l1.get(k, c.nowFn()); ok && !existing.Errored && existing.ExpiresAt.After(state.ExpiresAt) {
		final = existing
		propagate = false
	}
	sh.l1.put(k, final)
	sh.mu.Unlock()

	if propagate {
		if final.Errored {
			c.tiered.PutErrored(ctx, []byte(k))
		} else {
			c.tiered.Put(ctx, []byte(k), cachestore.Entry{Embed: final.Ready, ExpiresAt: final.ExpiresAt})
		}
	}

	// Publish before the map delete, close last: late subscribers that
	// already hold this publisher must see the value before the
	// channel close wakes them, and the map slot must be gone before
	// new Get callers could possibly observe the close.
	token.pub.setValue(final)
	sh.mu.Lock()
	delete(sh.pending, k)
	sh.mu.Unlock()
	token.pub.close()

	return final
}

// Abandon tears down a Miss token's publisher without ever publishing
// a value, for use from a panic-recovery path around the owner's
// extraction call. Waiters see a value-less close and retry Get.
func (c *Coordinator) Abandon(token *Token) {
	sh := token.shard
	sh.mu.Lock()
	delete(sh.pending, token.key)
	sh.mu.Unlock()
	token.pub.close()
}
