package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_NoArgs_PrintsUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"unireq"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "Usage")
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"unireq", "bogus"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "unknown command")
}

func TestRun_Introspect_EmitsJSONTree(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"unireq", "introspect"}, &stdout, &stderr)
	require.Equal(t, 0, code)

	var tree map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &tree))
	assert.Equal(t, "unireq.chain", tree["Name"])
}

func TestRun_ConfigFlag_LoadsProfileBeforeDispatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unireq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retry_tries: 9\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := Run([]string{"unireq", "--config", path, "introspect"}, &stdout, &stderr)
	require.Equal(t, 0, code)

	var tree map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &tree))
	options, ok := tree["Options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(9), options["retry_tries"])
}

func TestRun_ConfigFlag_MissingFileFails(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"unireq", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "introspect"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "config:")
}
