package requestid_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/requestid"
)

func TestPolicy_AssignsIDWhenAbsent(t *testing.T) {
	rc := reqkernel.New("GET", "http://example.com")
	next := func(_ context.Context, rc *reqkernel.Context) (*reqkernel.Response, error) {
		return &reqkernel.Response{Status: 200, Data: rc}, nil
	}

	resp, err := requestid.Policy(context.Background(), rc, next)
	require.NoError(t, err)

	id, ok := rc.Headers.Get(requestid.HeaderName)
	assert.True(t, ok)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, rc.Metadata["request_id"])
	assert.Same(t, rc, resp.Data)
}

func TestPolicy_PreservesExistingID(t *testing.T) {
	rc := reqkernel.New("GET", "http://example.com")
	rc.Headers.Set(requestid.HeaderName, "caller-supplied-id")
	next := func(_ context.Context, rc *reqkernel.Context) (*reqkernel.Response, error) {
		return &reqkernel.Response{Status: 200}, nil
	}

	_, err := requestid.Policy(context.Background(), rc, next)
	require.NoError(t, err)

	id, _ := rc.Headers.Get(requestid.HeaderName)
	assert.Equal(t, "caller-supplied-id", id)
}
