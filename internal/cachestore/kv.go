package cachestore

import (
	"context"
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/riverlink/embedsvc/internal/embedmodel"
	"github.com/riverlink/embedsvc/internal/svcerr"
)

var kvBucket = []byte("embeds")

// KVBackend is the embedded single-file B-tree backend of spec.md §4.2:
// one bucket, "embeds", keyed by the raw URL bytes, JSON value. Built on
// go.etcd.io/bbolt, the standard pure-Go single-file B-tree KV store
// (no corpus repo embeds a KV store directly; named per SPEC_FULL.md §2).
type KVBackend struct {
	db *bolt.DB
}

func OpenKVBackend(path string) (*KVBackend, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, svcerr.Backend("kv", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(kvBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, svcerr.Backend("kv", err)
	}
	return &KVBackend{db: db}, nil
}

func (b *KVBackend) Name() string { return "kv" }

type kvValue struct {
	Embed     *embedmodel.EmbedV1 `json:"embed"`
	ExpiresAt int64               `json:"expires_at"`
}

func (b *KVBackend) Get(_ context.Context, now time.Time, key []byte) (Entry, bool, error) {
	var raw []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(kvBucket).Get(key)
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return Entry{}, false, svcerr.Backend("kv", err)
	}
	if raw == nil {
		return Entry{}, false, nil
	}
	var stored kvValue
	if err := json.Unmarshal(raw, &stored); err != nil {
		return Entry{}, false, nil // deserialize failure: miss, not delete
	}
	exp := time.UnixMilli(stored.ExpiresAt).UTC()
	if now.After(exp) {
		_ = b.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(kvBucket).Delete(key)
		})
		return Entry{}, false, nil
	}
	return Entry{Embed: stored.Embed, ExpiresAt: exp}, true, nil
}

func (b *KVBackend) Put(_ context.Context, key []byte, e Entry) error {
	data, err := json.Marshal(kvValue{Embed: e.Embed, ExpiresAt: e.ExpiresAt.UTC().UnixMilli()})
	if err != nil {
		return svcerr.JSON(err)
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).Put(key, data)
	})
	if err != nil {
		return svcerr.Backend("kv", err)
	}
	return nil
}

func (b *KVBackend) Del(_ context.Context, key []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(kvBucket).Delete(key)
	})
	if err != nil {
		return svcerr.Backend("kv", err)
	}
	return nil
}

// Shutdown compacts is not attempted here (bbolt has no built-in
// online compaction); it simply closes the file, matching spec.md
// §4.2's "flush / compact / disconnect" contract where compaction is
// a no-op for a backend that has none.
func (b *KVBackend) Shutdown(_ context.Context) error {
	if err := b.db.Close(); err != nil {
		return svcerr.Backend("kv", err)
	}
	return nil
}
