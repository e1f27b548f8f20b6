package oauthpolicy_test

import (
	"testing"
	"time"

	"github.com/oorabona/unireq/pkg/oauthpolicy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCache_KeyDerivation(t *testing.T) {
	assert.Equal(t, "https://t::client", oauthpolicy.Key("https://t", "client", ""))
	assert.Equal(t, "https://t::client::read", oauthpolicy.Key("https://t", "client", "read"))
}

func TestTokenCache_SetAppliesSafetyBuffer(t *testing.T) {
	now := time.Now()
	c := oauthpolicy.NewTokenCache(func() time.Time { return now })

	c.Set("k", "tok", 100*time.Second, 30*time.Second)

	_, ok := c.Get("k")
	require.True(t, ok)

	now = now.Add(71 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "token should expire 70s after now per 100-30 safety margin")
}

func TestTokenCache_DefaultExpiryAndBuffer(t *testing.T) {
	now := time.Now()
	c := oauthpolicy.NewTokenCache(func() time.Time { return now })

	c.Set("k", "tok", 0, -1)

	now = now.Add(3569 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestTokenCache_GetDeletesExpired(t *testing.T) {
	now := time.Now()
	c := oauthpolicy.NewTokenCache(func() time.Time { return now })
	c.Set("k", "tok", 10*time.Second, 0)

	now = now.Add(time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)

	_, ok = c.Get("k")
	assert.False(t, ok)
}
