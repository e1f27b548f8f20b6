package schemavalidate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/schemavalidate"
)

const personSchema = `{
	"type": "object",
	"properties": {"name": {"type": "string"}, "age": {"type": "integer", "minimum": 0}},
	"required": ["name"]
}`

func terminalOK(_ context.Context, _ *reqkernel.Context) (*reqkernel.Response, error) {
	return &reqkernel.Response{Status: 200}, nil
}

func TestHandle_NilBodyPassesThrough(t *testing.T) {
	p, err := schemavalidate.Compile(personSchema)
	require.NoError(t, err)

	rc := reqkernel.New("POST", "http://example.com")
	resp, err := p.Handle(context.Background(), rc, terminalOK)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
}

func TestHandle_ValidBodyPasses(t *testing.T) {
	p, err := schemavalidate.Compile(personSchema)
	require.NoError(t, err)

	rc := reqkernel.New("POST", "http://example.com")
	rc.Body = map[string]any{"name": "ada", "age": 30.0}
	resp, err := p.Handle(context.Background(), rc, terminalOK)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
}

func TestHandle_InvalidBodyRejected(t *testing.T) {
	p, err := schemavalidate.Compile(personSchema)
	require.NoError(t, err)

	rc := reqkernel.New("POST", "http://example.com")
	rc.Body = map[string]any{"age": -1.0}
	_, err = p.Handle(context.Background(), rc, terminalOK)
	assert.Error(t, err)
}
