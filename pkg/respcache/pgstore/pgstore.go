// Package pgstore is a respcache.Storage over PostgreSQL, for callers who
// already run Postgres and would rather not add a second storage engine
// just for the response cache. Grounded on the teacher's
// core/pkg/budget/postgres_store.go (Mindburn-Labs-helm): same
// database/sql-over-lib/pq shape and $N placeholder style, generalized
// from budget rows to cache entries. sqlstore covers the embedded case;
// this covers the "we already have Postgres" case with the same schema.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/oorabona/unireq/pkg/respcache"
)

// Store is a respcache.Storage backed by a single Postgres table.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS respcache_entries (
	key        TEXT PRIMARY KEY,
	status     INTEGER NOT NULL,
	headers    TEXT NOT NULL,
	body       BYTEA NOT NULL,
	stored_at  BIGINT NOT NULL,
	expires_at BIGINT NOT NULL,
	etag       TEXT NOT NULL,
	last_mod   TEXT NOT NULL,
	vary       TEXT NOT NULL
)`

// Open creates the backing table (if absent) on db, which the caller
// opens itself via sql.Open("postgres", dsn), and returns a Store.
func Open(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("pgstore: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Get implements respcache.Storage.
func (s *Store) Get(ctx context.Context, key string) (respcache.Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT status, headers, body, stored_at, expires_at, etag, last_mod, vary
		FROM respcache_entries WHERE key = $1`, key)

	var (
		status                int
		headersJSON, varyJSON string
		body                  []byte
		storedAt, expiresAt   int64
		etag, lastMod         string
	)
	err := row.Scan(&status, &headersJSON, &body, &storedAt, &expiresAt, &etag, &lastMod, &varyJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return respcache.Entry{}, false, nil
	}
	if err != nil {
		return respcache.Entry{}, false, fmt.Errorf("pgstore: get %s: %w", key, err)
	}

	var headers map[string][]string
	if err := json.Unmarshal([]byte(headersJSON), &headers); err != nil {
		return respcache.Entry{}, false, fmt.Errorf("pgstore: decode headers: %w", err)
	}
	var vary []string
	if err := json.Unmarshal([]byte(varyJSON), &vary); err != nil {
		return respcache.Entry{}, false, fmt.Errorf("pgstore: decode vary: %w", err)
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
		return fmt.Errorf("pgstore: encode headers: %w", err)
	}
	varyJSON, err := json.Marshal(e.VaryFields)
	if err != nil {
		return fmt.Errorf("pgstore: encode vary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO respcache_entries (key, status, headers, body, stored_at, expires_at, etag, last_mod, vary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (key) DO UPDATE SET
			status = excluded.status, headers = excluded.headers, body = excluded.body,
			stored_at = excluded.stored_at, expires_at = excluded.expires_at,
			etag = excluded.etag, last_mod = excluded.last_mod, vary = excluded.vary`,
		key, e.Status, string(headersJSON), e.Body, e.StoredAt.Unix(), e.ExpiresAt.Unix(),
		e.ETag, e.LastMod, string(varyJSON))
	if err != nil {
		return fmt.Errorf("pgstore: put %s: %w", key, err)
	}
	return nil
}

// Delete implements respcache.Storage.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM respcache_entries WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("pgstore: delete %s: %w", key, err)
	}
	return nil
}
