package cachestore

import (
	"context"
	"testing"
	"time"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

func TestMemoryBackendGetPutDel(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(2)
	now := time.Now()

	if _, ok, err := b.Get(ctx, now, []byte("k1")); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	e := Entry{Embed: &embedmodel.EmbedV1{URL: "https://a"}, ExpiresAt: now.Add(time.Minute)}
	if err := b.Put(ctx, []byte("k1"), e); err != nil {
		t.Fatal(err)
	}
	got, ok, err := b.Get(ctx, now, []byte("k1"))
	if err != nil || !ok || got.Embed.URL != "https://a" {
		t.Fatalf("got %+v ok=%v err=%v", got, ok, err)
	}

	if err := b.Del(ctx, []byte("k1")); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := b.Get(ctx, now, []byte("k1")); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestMemoryBackendExpiry(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(2)
	now := time.Now()
	e := Entry{Embed: &embedmodel.EmbedV1{URL: "https://a"}, ExpiresAt: now.Add(-time.Second)}
	if err := b.Put(ctx, []byte("k1"), e); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := b.Get(ctx, now, []byte("k1")); ok || err != nil {
		t.Fatalf("expected expired miss, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryBackendEvictsLRU(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(2)
	now := time.Now()
	put := func(k string) {
		e := Entry{Embed: &embedmodel.EmbedV1{URL: k}, ExpiresAt: now.Add(time.Minute)}
		if err := b.Put(ctx, []byte(k), e); err != nil {
			t.Fatal(err)
		}
	}
	put("k1")
	put("k2")
	// touch k1 so it's most-recently-used
	if _, ok, _ := b.Get(ctx, now, []byte("k1")); !ok {
		t.Fatal("expected hit")
	}
	put("k3") // should evict k2, the least recently used
	if _, ok, _ := b.Get(ctx, now, []byte("k2")); ok {
		t.Fatal("expected k2 evicted")
	}
	if _, ok, _ := b.Get(ctx, now, []byte("k1")); !ok {
		t.Fatal("expected k1 to survive")
	}
	if _, ok, _ := b.Get(ctx, now, []byte("k3")); !ok {
		t.Fatal("expected k3 present")
	}
}
