package reqkernel_test

import (
	"context"
	"testing"

	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markerPolicy(name string, trail *[]string) reqkernel.Policy {
	return func(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
		*trail = append(*trail, "in:"+name)
		resp, err := next(ctx, rc)
		*trail = append(*trail, "out:"+name)
		return resp, err
	}
}

func terminalPolicy(status int) reqkernel.Policy {
	return func(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
		return &reqkernel.Response{Status: status, Headers: reqkernel.NewHeaders()}, nil
	}
}

func TestCompose_OnionOrdering(t *testing.T) {
	var trail []string
	chain := reqkernel.Compose(
		markerPolicy("a", &trail),
		markerPolicy("b", &trail),
		terminalPolicy(200),
	)

	resp, err := chain(context.Background(), reqkernel.New("GET", "http://x"), reqkernel.Terminal)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, []string{"in:a", "in:b", "out:b", "out:a"}, trail)
}

// TestCompose_Associative verifies spec §8's associativity invariant:
// nesting the same policies in a different grouping produces the same
// observable call order and response.
func TestCompose_Associative(t *testing.T) {
	var trail1, trail2 []string

	left := reqkernel.Compose(
		reqkernel.Compose(markerPolicy("a", &trail1), markerPolicy("b", &trail1)),
		markerPolicy("c", &trail1),
	)
	right := reqkernel.Compose(
		markerPolicy("a", &trail2),
		reqkernel.Compose(markerPolicy("b", &trail2), markerPolicy("c", &trail2)),
	)

	ctx := context.Background()
	r1, err1 := left(ctx, reqkernel.New("GET", "http://x"), terminalNextFor(200))
	r2, err2 := right(ctx, reqkernel.New("GET", "http://x"), terminalNextFor(200))

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, trail1, trail2)
	assert.Equal(t, r1.Status, r2.Status)
}

func terminalNextFor(status int) reqkernel.Next {
	return func(ctx context.Context, rc *reqkernel.Context) (*reqkernel.Response, error) {
		return &reqkernel.Response{Status: status}, nil
	}
}

func TestCompose_ShortCircuit(t *testing.T) {
	var trail []string
	shortCircuit := func(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
		trail = append(trail, "cache-hit")
		return &reqkernel.Response{Status: 304}, nil
	}
	chain := reqkernel.Compose(shortCircuit, markerPolicy("unreached", &trail))

	resp, err := chain(context.Background(), reqkernel.New("GET", "http://x"), reqkernel.Terminal)
	require.NoError(t, err)
	assert.Equal(t, 304, resp.Status)
	assert.Equal(t, []string{"cache-hit"}, trail)
}

func TestTerminal_NoTransportError(t *testing.T) {
	chain := reqkernel.Compose(func(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
		return next(ctx, rc)
	})
	_, err := chain(context.Background(), reqkernel.New("GET", "http://x"), reqkernel.Terminal)
	assert.ErrorIs(t, err, reqkernel.ErrNoTransport)
}

func TestHeaders_CaseInsensitive(t *testing.T) {
	h := reqkernel.NewHeaders()
	h.Set("Content-Type", "application/json")

	v, ok := h.Get("content-type")
	assert.True(t, ok)
	assert.Equal(t, "application/json", v)
}

func TestContext_CloneIsIndependent(t *testing.T) {
	original := reqkernel.New("GET", "http://x")
	original.Headers.Set("X-A", "1")

	clone := original.WithHeader("X-B", "2")

	_, hasB := original.Headers.Get("X-B")
	assert.False(t, hasB, "mutating the clone must not affect the original")

	v, _ := clone.Headers.Get("X-A")
	assert.Equal(t, "1", v, "clone must preserve unrelated headers")
}
