package respcache_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/respcache"
	"github.com/oorabona/unireq/pkg/respcache/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_CacheMissThenHit(t *testing.T) {
	now := time.Now()
	p := respcache.New(respcache.Options{Storage: memstore.New(0), Now: func() time.Time { return now }})

	calls := 0
	next := func(_ context.Context, rc *reqkernel.Context) (*reqkernel.Response, error) {
		calls++
		h := reqkernel.NewHeaders()
		h.Set("Cache-Control", "max-age=60")
		return &reqkernel.Response{Status: 200, Headers: h, Data: []byte("body")}, nil
	}

	rc := reqkernel.New("GET", "https://api.example.com/x")
	resp1, err := p.Handle(context.Background(), rc, next)
	require.NoError(t, err)
	assert.Equal(t, 200, resp1.Status)
	assert.Equal(t, 1, calls)

	resp2, err := p.Handle(context.Background(), rc, next)
	require.NoError(t, err)
	assert.Equal(t, []byte("body"), resp2.Data)
	assert.Equal(t, 1, calls, "second call should be served from cache")
	xCache, _ := resp2.Headers.Get("x-cache")
	assert.Equal(t, "HIT", xCache)
}

func TestHandle_NonGETBypassesCache(t *testing.T) {
	p := respcache.New(respcache.Options{Storage: memstore.New(0)})
	calls := 0
	next := func(_ context.Context, rc *reqkernel.Context) (*reqkernel.Response, error) {
		calls++
		return &reqkernel.Response{Status: 200, Headers: reqkernel.NewHeaders()}, nil
	}

	rc := reqkernel.New("POST", "https://api.example.com/x")
	_, err := p.Handle(context.Background(), rc, next)
	require.NoError(t, err)
	_, err = p.Handle(context.Background(), rc, next)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestHandle_StaleRevalidatesWith304(t *testing.T) {
	now := time.Now()
	p := respcache.New(respcache.Options{Storage: memstore.New(0), Now: func() time.Time { return now }})

	calls := 0
	next := func(_ context.Context, rc *reqkernel.Context) (*reqkernel.Response, error) {
		calls++
		if calls == 1 {
			h := reqkernel.NewHeaders()
			h.Set("Cache-Control", "max-age=1")
			h.Set("ETag", `"v1"`)
			return &reqkernel.Response{Status: 200, Headers: h, Data: []byte("body")}, nil
		}
		ifNoneMatch, _ := rc.Headers.Get("If-None-Match")
		assert.Equal(t, `"v1"`, ifNoneMatch)
		h := reqkernel.NewHeaders()
		h.Set("Cache-Control", "max-age=60")
		return &reqkernel.Response{Status: http.StatusNotModified, Headers: h}, nil
	}

	rc := reqkernel.New("GET", "https://api.example.com/x")
	_, err := p.Handle(context.Background(), rc, next)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	resp, err := p.Handle(context.Background(), rc, next)
	require.NoError(t, err)
	assert.Equal(t, []byte("body"), resp.Data)
	assert.Equal(t, 2, calls)
	xCache, _ := resp.Headers.Get("x-cache")
	assert.Equal(t, "REVALIDATED", xCache)
}
