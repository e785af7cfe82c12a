package coalesce

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/riverlink/embedsvc/internal/cachestore"
	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// fakeTiered is an in-process stand-in for *tieredcache.Cache that
// lets tests control whether the tiered layer already holds a value.
type fakeTiered struct {
	mu      sync.Mutex
	entries map[string]cachestore.Entry
}

func newFakeTiered() *fakeTiered { return &fakeTiered{entries: make(map[string]cachestore.Entry)} }

func (f *fakeTiered) Get(_ context.Context, now time.Time, key []byte) (cachestore.Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[string(key)]
	if !ok || now.After(e.ExpiresAt) {
		return cachestore.Entry{}, false
	}
	return e, true
}

func (f *fakeTiered) Put(_ context.Context, key []byte, entry cachestore.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[string(key)] = entry
}

func (f *fakeTiered) PutErrored(_ context.Context, key []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, string(key))
}

func TestSingleflightExactlyOneMiss(t *testing.T) {
	ctx := context.Background()
	c := New(newFakeTiered(), zap.NewNop(), 1024)

	const n = 50
	var misses, pendings, hits int64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			res := c.Get(ctx, []byte("https://example.com/a"))
			switch res.Outcome {
			case Miss:
				atomic.AddInt64(&misses, 1)
			case Pending:
				atomic.AddInt64(&pendings, 1)
			case Hit:
				atomic.AddInt64(&hits, 1)
			}
		}()
	}
	wg.Wait()

	if misses != 1 {
		t.Fatalf("expected exactly 1 Miss, got %d (pending=%d hits=%d)", misses, pendings, hits)
	}
	if pendings+hits != n-1 {
		t.Fatalf("expected %d pending+hit, got %d", n-1, pendings+hits)
	}
}

func TestTTLNeverHitsAfterExpiry(t *testing.T) {
	ctx := context.Background()
	c := New(newFakeTiered(), zap.NewNop(), 1024)
	key := []byte("https://example.com/b")

	res := c.Get(ctx, key)
	if res.Outcome != Miss {
		t.Fatalf("expected Miss, got %v", res.Outcome)
	}
	base := c.nowFn()
	c.PutReady(ctx, res.Token, &embedmodel.EmbedV1{URL: "https://example.com/b"}, base.Add(time.Millisecond))

	// advance the coordinator's clock past expiry
	c.nowFn = func() time.Time { return base.Add(time.Second) }

	res2 := c.Get(ctx, key)
	if res2.Outcome == Hit {
		t.Fatal("expected no Hit once now is past expiresAt")
	}
}

func TestMonotoneExpiryReadyVsReady(t *testing.T) {
	ctx := context.Background()
	c := New(newFakeTiered(), zap.NewNop(), 1024)
	key := []byte("https://example.com/c")
	now := c.nowFn()

	// Manually construct two independent Miss tokens for the same key
	// the way two racing extractions would (each token is only valid
	// because the shard's Pending slot was still empty when it was
	// minted; here we simulate that by calling Get once, then forging
	// a second token against the same shard/key for the race).
	res1 := c.Get(ctx, key)
	if res1.Outcome != Miss {
		t.Fatalf("expected Miss, got %v", res1.Outcome)
	}
	shard := res1.Token.shard
	pub2 := newPublisher()
	token2 := &Token{key: string(key), shard: shard, pub: pub2}

	earlier := now.Add(time.Minute)
	later := now.Add(time.Hour)

	final2 := c.PutReady(ctx, token2, &embedmodel.EmbedV1{URL: "later"}, later)
	if final2.ExpiresAt != later {
		t.Fatalf("expected first installer's value %v to win, got %v", later, final2.ExpiresAt)
	}

	final1 := c.PutReady(ctx, res1.Token, &embedmodel.EmbedV1{URL: "earlier"}, earlier)
	if !final1.ExpiresAt.Equal(later) {
		t.Fatalf("expected later expiresAt %v to survive a later put with an earlier value, got %v", later, final1.ExpiresAt)
	}
	if final1.Ready.URL != "later" {
		t.Fatalf("expected substituted Ready to be the later-expiring value, got %q", final1.Ready.URL)
	}
}

func TestErroredNeverSupplantsReady(t *testing.T) {
	ctx := context.Background()
	c := New(newFakeTiered(), zap.NewNop(), 1024)
	key := []byte("https://example.com/d")
	now := c.nowFn()

	res := c.Get(ctx, key)
	final := c.PutReady(ctx, res.Token, &embedmodel.EmbedV1{URL: "https://example.com/d"}, now.Add(time.Hour))
	if final.Errored {
		t.Fatal("unexpected errored state")
	}

	// A second, independent extraction for the same key (simulated,
	// as above) fails; its error must not overwrite the still-valid
	// Ready entry.
	shard := res.Token.shard
	pub2 := newPublisher()
	token2 := &Token{key: string(key), shard: shard, pub: pub2}
	final2 := c.PutErrored(ctx, token2, errBoom, time.Minute)
	if final2.Errored {
		t.Fatal("expected the existing Ready to win over a fresh Errored")
	}
	if final2.Ready.URL != "https://example.com/d" {
		t.Fatalf("expected surviving Ready, got %+v", final2)
	}
}

func TestPendingSubscriberObservesWinnerResult(t *testing.T) {
	ctx := context.Background()
	c := New(newFakeTiered(), zap.NewNop(), 1024)
	key := []byte("https://example.com/e")

	res1 := c.Get(ctx, key)
	if res1.Outcome != Miss {
		t.Fatalf("expected Miss, got %v", res1.Outcome)
	}
	res2 := c.Get(ctx, key)
	if res2.Outcome != Pending {
		t.Fatalf("expected Pending, got %v", res2.Outcome)
	}

	done := make(chan RestingState, 1)
	go func() {
		st, retry := res2.Sub.Wait(ctx)
		if retry {
			t.Error("unexpected retry signal")
		}
		done <- st
	}()

	now := c.nowFn()
	c.PutReady(ctx, res1.Token, &embedmodel.EmbedV1{URL: "https://example.com/e"}, now.Add(time.Hour))

	select {
	case st := <-done:
		if st.Ready == nil || st.Ready.URL != "https://example.com/e" {
			t.Fatalf("subscriber got wrong value: %+v", st)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never woke up")
	}
}

func TestAbandonSignalsRetry(t *testing.T) {
	ctx := context.Background()
	c := New(newFakeTiered(), zap.NewNop(), 1024)
	key := []byte("https://example.com/f")

	res1 := c.Get(ctx, key)
	res2 := c.Get(ctx, key)
	if res2.Outcome != Pending {
		t.Fatalf("expected Pending, got %v", res2.Outcome)
	}

	go c.Abandon(res1.Token)

	_, retry := res2.Sub.Wait(ctx)
	if !retry {
		t.Fatal("expected retry signal after abandoned publisher")
	}
}

var errBoom = &boomErr{}

type boomErr struct{}

func (*boomErr) Error() string { return "boom" }
