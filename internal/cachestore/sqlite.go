package cachestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zeebo/blake3"

	"github.com/riverlink/embedsvc/internal/embedmodel"
	"github.com/riverlink/embedsvc/internal/svcerr"
)

// SQLiteBackend persists entries in a single `embeds` table, keyed by
// the blake3 hash of the URL per spec.md §6. Reads/writes go through
// database/sql's connection pool so the blocking sqlite driver never
// runs on a caller's own goroutine budget longer than one query.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens (creating if needed) the embeds table at
// path, using the pure-Go modernc.org/sqlite driver — no cgo, same
// driver registration style as snapetech-plexTuner's Plex DB writer.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, svcerr.Backend("sqlite", fmt.Errorf("open %s: %w", path, err))
	}
	const schema = `CREATE TABLE IF NOT EXISTS embeds (
		hash BLOB PRIMARY KEY,
		url TEXT NOT NULL,
		embed TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, svcerr.Backend("sqlite", fmt.Errorf("create schema: %w", err))
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

func sqliteHash(url []byte) []byte {
	sum := blake3.Sum256(url)
	return sum[:]
}

func (b *SQLiteBackend) Get(ctx context.Context, now time.Time, key []byte) (Entry, bool, error) {
	hash := sqliteHash(key)
	var body string
	var expiresAt int64
	row := b.db.QueryRowContext(ctx, `SELECT embed, expires_at FROM embeds WHERE hash = ?`, hash)
	if err := row.Scan(&body, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, false, nil
		}
		return Entry{}, false, svcerr.Backend("sqlite", err)
	}
	exp := time.Unix(expiresAt, 0).UTC()
	if now.After(exp) {
		// TTL-expired: opportunistic delete per spec.md §4.2.
		_, _ = b.db.ExecContext(ctx, `DELETE FROM embeds WHERE hash = ?`, hash)
		return Entry{}, false, nil
	}
	var e embedmodel.EmbedV1
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		// Deserialize failure: per spec.md §9 Q2, treated as a miss,
		// not a delete.
		return Entry{}, false, nil
	}
	return Entry{Embed: &e, ExpiresAt: exp}, true, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, key []byte, e Entry) error {
	hash := sqliteHash(key)
	body, err := json.Marshal(e.Embed)
	if err != nil {
		return svcerr.JSON(err)
	}
	_, err = b.db.ExecContext(ctx, `INSERT INTO embeds (hash, url, embed, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET url = excluded.url, embed = excluded.embed, expires_at = excluded.expires_at`,
		hash, string(key), string(body), e.ExpiresAt.UTC().Unix())
	if err != nil {
		return svcerr.Backend("sqlite", err)
	}
	return nil
}

func (b *SQLiteBackend) Del(ctx context.Context, key []byte) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM embeds WHERE hash = ?`, sqliteHash(key))
	if err != nil {
		return svcerr.Backend("sqlite", err)
	}
	return nil
}

func (b *SQLiteBackend) Shutdown(_ context.Context) error {
	if err := b.db.Close(); err != nil {
		return svcerr.Backend("sqlite", err)
	}
	return nil
}
