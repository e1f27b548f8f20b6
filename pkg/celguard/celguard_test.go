package celguard_test

import (
	"context"
	"testing"

	"github.com/oorabona/unireq/pkg/celguard"
	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func terminalOK(_ context.Context, _ *reqkernel.Context) (*reqkernel.Response, error) {
	return &reqkernel.Response{Status: 200, Headers: reqkernel.NewHeaders()}, nil
}

func TestHandle_AllowsWhenExpressionTrue(t *testing.T) {
	p, err := celguard.Compile(`method == "GET"`)
	require.NoError(t, err)

	rc := reqkernel.New("GET", "https://api.example.com/x")
	resp, err := p.Handle(context.Background(), rc, terminalOK)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
}

func TestHandle_DeniesWhenExpressionFalse(t *testing.T) {
	p, err := celguard.Compile(`method == "GET"`)
	require.NoError(t, err)

	rc := reqkernel.New("DELETE", "https://api.example.com/x")
	_, err = p.Handle(context.Background(), rc, terminalOK)
	assert.Error(t, err)
}

func TestHandle_HeaderOptInAllowsWrite(t *testing.T) {
	p, err := celguard.Compile(`method == "GET" || headers["x-allow-write"] == "true"`)
	require.NoError(t, err)

	rc := reqkernel.New("POST", "https://api.example.com/x")
	rc.Headers.Set("X-Allow-Write", "true")

	resp, err := p.Handle(context.Background(), rc, terminalOK)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
}

func TestCompile_RejectsInvalidExpression(t *testing.T) {
	_, err := celguard.Compile(`method ===`)
	assert.Error(t, err)
}
