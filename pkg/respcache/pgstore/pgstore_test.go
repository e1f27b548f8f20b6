package pgstore_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oorabona/unireq/pkg/respcache"
	"github.com/oorabona/unireq/pkg/respcache/pgstore"
)

func TestOpen_CreatesSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS respcache_entries")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = pgstore.Open(context.Background(), db)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Get_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS respcache_entries")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := pgstore.Open(context.Background(), db)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, headers, body, stored_at, expires_at, etag, last_mod, vary")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(nil))

	_, ok, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Get_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS respcache_entries")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := pgstore.Open(context.Background(), db)
	require.NoError(t, err)

	now := time.Now().Unix()
	rows := sqlmock.NewRows([]string{"status", "headers", "body", "stored_at", "expires_at", "etag", "last_mod", "vary"}).
		AddRow(200, `{}`, []byte("body"), now, now+60, `"abc"`, "", `[]`)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, headers, body, stored_at, expires_at, etag, last_mod, vary")).
		WithArgs("k1").
		WillReturnRows(rows)

	e, ok, err := store.Get(context.Background(), "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 200, e.Status)
	assert.Empty(t, e.Headers)
	assert.Equal(t, []byte("body"), e.Body)
}

func TestStore_Put_Upserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS respcache_entries")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := pgstore.Open(context.Background(), db)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO respcache_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Put(context.Background(), "k1", respcache.Entry{Status: 200, Body: []byte("hi")})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
