// Package oauthpolicy implements the OAuth bearer policy and its token
// cache (spec §4.9/§4.10), grounded on the teacher's
// pkg/credentials.GoogleOAuth token-exchange/refresh shape
// (Mindburn-Labs-helm) and pkg/credentials.RotationManager's single-flight
// refresh pattern, generalized from a Google-specific client to a
// caller-supplied tokenSupplier func.
package oauthpolicy

import (
	"sync"
	"time"
)

// Token is the cached credential plus its cache bookkeeping.
type Token struct {
	AccessToken string
	ExpiresIn   time.Duration
	expiresAt   time.Time
}

// TokenCache keys tokens by tokenURL::clientID(::scope), per spec §4.10.
type TokenCache struct {
	mu      sync.Mutex
	entries map[string]Token
	now     func() time.Time
}

// NewTokenCache builds an empty cache. now is overridable for tests.
func NewTokenCache(now func() time.Time) *TokenCache {
	if now == nil {
		now = time.Now
	}
	return &TokenCache{entries: make(map[string]Token), now: now}
}

// Key derives the cache key from spec §4.10's rule: tokenURL "::" clientID,
// with an optional "::" scope suffix when scope is non-empty.
func Key(tokenURL, clientID, scope string) string {
	key := tokenURL + "::" + clientID
	if scope != "" {
		key += "::" + scope
	}
	return key
}

// Get returns the cached token for key, deleting and reporting absent if
// it has reached its expiry (spec §4.10: "get returns undefined and
// deletes the entry if now >= expiresAt").
func (c *TokenCache) Get(key string) (Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.entries[key]
	if !ok {
		return Token{}, false
	}
	if !c.now().Before(t.expiresAt) {
		delete(c.entries, key)
		return Token{}, false
	}
	return t, true
}

// defaultExpiresIn and defaultSafetyBuffer are spec §4.10's defaults.
const (
	defaultExpiresIn    = 3600 * time.Second
	defaultSafetyBuffer = 30 * time.Second
)

// Set stores accessToken, computing expiresAt = now + max(0, expiresIn -
// safetyBuffer) per spec §4.10. A zero expiresIn uses the 3600s default; a
// negative safetyBuffer is treated as the 30s default.
func (c *TokenCache) Set(key, accessToken string, expiresIn, safetyBuffer time.Duration) {
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	if safetyBuffer < 0 {
		safetyBuffer = defaultSafetyBuffer
	}

	effective := expiresIn - safetyBuffer
	if effective < 0 {
		effective = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Token{
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
		expiresAt:   c.now().Add(effective),
	}
}

// Delete drops a cached token. Policy itself never calls it; a failed
// refresh leaves the cache as it was.
func (c *TokenCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
