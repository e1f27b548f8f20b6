package memstore_test

import (
	"context"
	"testing"

	"github.com/oorabona/unireq/pkg/respcache"
	"github.com/oorabona/unireq/pkg/respcache/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s := memstore.New(2)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a", respcache.Entry{Status: 200}))
	require.NoError(t, s.Put(ctx, "b", respcache.Entry{Status: 200}))

	_, _, _ = s.Get(ctx, "a") // touch a, making b least-recently-used

	require.NoError(t, s.Put(ctx, "c", respcache.Entry{Status: 200}))

	_, okA, _ := s.Get(ctx, "a")
	_, okB, _ := s.Get(ctx, "b")
	_, okC, _ := s.Get(ctx, "c")

	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
	assert.Equal(t, 2, s.Len())
}

func TestStore_DeleteRemovesEntry(t *testing.T) {
	s := memstore.New(0)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "a", respcache.Entry{Status: 200}))
	require.NoError(t, s.Delete(ctx, "a"))

	_, ok, _ := s.Get(ctx, "a")
	assert.False(t, ok)
}
