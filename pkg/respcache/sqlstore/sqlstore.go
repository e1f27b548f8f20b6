// Package sqlstore is a disk-backed respcache.Storage over database/sql,
// driven by modernc.org/sqlite (pure Go, no cgo) so the response cache can
// persist across process restarts without a server dependency. Grounded on
// the teacher's database/sql usage patterns (Mindburn-Labs-helm uses
// lib/pq and DATA-DOG/go-sqlmock for its persistence layer and tests);
// this package gives the sqlite driver a concrete home since nothing in
// the distilled spec otherwise exercises it.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oorabona/unireq/pkg/respcache"
)

// Store is a respcache.Storage backed by a single SQL table.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS respcache_entries (
	key        TEXT PRIMARY KEY,
	status     INTEGER NOT NULL,
	headers    TEXT NOT NULL,
	body       BLOB NOT NULL,
	stored_at  INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	etag       TEXT NOT NULL,
	last_mod   TEXT NOT NULL,
	vary       TEXT NOT NULL
)`

// Open creates the backing table (if absent) on db and returns a Store.
// Callers construct db themselves, e.g. sql.Open("sqlite", path), so this
// package stays agnostic of connection lifecycle.
func Open(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("sqlstore: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Get implements respcache.Storage.
func (s *Store) Get(ctx context.Context, key string) (respcache.Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT status, headers, body, stored_at, expires_at, etag, last_mod, vary
		FROM respcache_entries WHERE key = ?`, key)

	var (
		status               int
		headersJSON, varyJSON string
		body                 []byte
		storedAt, expiresAt  int64
		etag, lastMod        string
	)
	err := row.Scan(&status, &headersJSON, &body, &storedAt, &expiresAt, &etag, &lastMod, &varyJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return respcache.Entry{}, false, nil
	}
	if err != nil {
		return respcache.Entry{}, false, fmt.Errorf("sqlstore: get %s: %w", key, err)
	}

	var headers map[string][]string
	if err := json.Unmarshal([]byte(headersJSON), &headers); err != nil {
		return respcache.Entry{}, false, fmt.Errorf("sqlstore: decode headers: %w", err)
	}
	var vary []string
	if err := json.Unmarshal([]byte(varyJSON), &vary); err != nil {
		return respcache.Entry{}, false, fmt.Errorf("sqlstore: decode vary: %w", err)
	}

	return respcache.Entry{
		Status:     status,
		Headers:    headers,
		Body:       body,
		StoredAt:   time.Unix(storedAt, 0).UTC(),
		ExpiresAt:  time.Unix(expiresAt, 0).UTC(),
		ETag:       etag,
		LastMod:    lastMod,
		VaryFields: vary,
	}, true, nil
}

// Put implements respcache.Storage.
func (s *Store) Put(ctx context.Context, key string, e respcache.Entry) error {
	headersJSON, err := json.Marshal(map[string][]string(e.Headers))
	if err != nil {
		return fmt.Errorf("sqlstore: encode headers: %w", err)
	}
	varyJSON, err := json.Marshal(e.VaryFields)
	if err != nil {
		return fmt.Errorf("sqlstore: encode vary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO respcache_entries (key, status, headers, body, stored_at, expires_at, etag, last_mod, vary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			status = excluded.status, headers = excluded.headers, body = excluded.body,
			stored_at = excluded.stored_at, expires_at = excluded.expires_at,
			etag = excluded.etag, last_mod = excluded.last_mod, vary = excluded.vary`,
		key, e.Status, string(headersJSON), e.Body, e.StoredAt.Unix(), e.ExpiresAt.Unix(),
		e.ETag, e.LastMod, string(varyJSON))
	if err != nil {
		return fmt.Errorf("sqlstore: put %s: %w", key, err)
	}
	return nil
}

// Delete implements respcache.Storage.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM respcache_entries WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("sqlstore: delete %s: %w", key, err)
	}
	return nil
}
