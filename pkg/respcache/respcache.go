// Package respcache implements the HTTP response cache and conditional
// request revalidation (spec §4.5/§4.6) behind a pluggable Storage
// interface, generalized from the teacher's pkg/kernel content-addressed
// blob store (Mindburn-Labs-helm, BlobStore.Store/Get/Has/Delete) into an
// HTTP-semantics-aware cache keyed by method+URL+Vary headers rather than
// content hash.
package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

// Entry is one cached response, including enough metadata to revalidate it
// conditionally (spec §4.6: ETag / Last-Modified).
type Entry struct {
	Status     int
	Headers    http.Header
	Body       []byte
	StoredAt   time.Time
	ExpiresAt  time.Time
	ETag       string
	LastMod    string
	VaryFields []string
}

// Fresh reports whether the entry is still within its freshness window at
// the given instant.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Storage is the pluggable persistence boundary for cached entries. Five
// concrete implementations ship alongside this package: memstore (in
// process LRU), objstore (GCS/S3-backed), sqlstore (modernc.org/sqlite),
// pgstore (PostgreSQL) and redisstore (Redis).
type Storage interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, e Entry) error
	Delete(ctx context.Context, key string) error
}

// Options configures a Policy.
type Options struct {
	Storage      Storage
	HonorPrivate bool
	Now          func() time.Time
	// DefaultTTL is the freshness window given to a stored or revalidated
	// response that has no explicit max-age/s-maxage, whether or not it
	// carries validators. Zero stores such a response already stale, so it
	// is only served again after a successful revalidation.
	DefaultTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Policy implements response caching with conditional revalidation: a
// fresh cache hit short-circuits the chain; a stale entry with validators
// gets reissued as a conditional request; everything else passes through
// to the next policy and, if cacheable, gets stored.
type Policy struct {
	opts Options
	vary *VaryRegistry
}

// New builds a Policy over a Storage backend.
func New(opts Options) *Policy {
	return &Policy{opts: opts.withDefaults()}
}

// Key derives a cache key from method, URL and the subset of request
// headers named by a prior response's Vary header (spec §4.6: "Vary
// extends the cache key with the named request headers' values").
func Key(method, url string, headers http.Header, vary []string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToUpper(method)))
	h.Write([]byte{0})
	h.Write([]byte(url))
	for _, name := range vary {
		h.Write([]byte{0})
		h.Write([]byte(strings.ToLower(name)))
		h.Write([]byte{'='})
		h.Write([]byte(headers.Get(name)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns a cached entry for key, applying freshness rules: a fresh
// entry is returned with fresh=true (meaning the caller may serve it
// directly); a stale entry with a validator is returned with fresh=false so
// the caller can attach conditional headers and revalidate.
func (p *Policy) Lookup(ctx context.Context, key string) (entry Entry, found bool, fresh bool, err error) {
	e, ok, err := p.opts.Storage.Get(ctx, key)
	if err != nil || !ok {
		return Entry{}, false, false, err
	}
	return e, true, e.Fresh(p.opts.Now()), nil
}

// ApplyConditionalHeaders adds If-None-Match / If-Modified-Since to a
// request's headers based on a stale entry's validators (spec §4.6).
func ApplyConditionalHeaders(headers http.Header, stale Entry) {
	if stale.ETag != "" {
		headers.Set("If-None-Match", stale.ETag)
	}
	if stale.LastMod != "" {
		headers.Set("If-Modified-Since", stale.LastMod)
	}
}

// Store persists a response as a cache entry if its Cache-Control
// directives permit it, computing ExpiresAt from the freshness window (or
// DefaultTTL when the response declares none).
func (p *Policy) Store(ctx context.Context, key string, status int, headers http.Header, body []byte, vary []string) error {
	directives := ParseCacheControl(headers.Get("Cache-Control"))
	if !directives.Cacheable(p.opts.HonorPrivate) {
		return nil
	}

	ttl := p.opts.DefaultTTL
	if secs, ok := directives.FreshnessWindow(); ok {
		ttl = time.Duration(secs) * time.Second
	}
	now := p.opts.Now()

	e := Entry{
		Status:     status,
		Headers:    headers.Clone(),
		Body:       body,
		StoredAt:   now,
		ExpiresAt:  now.Add(ttl),
		ETag:       headers.Get("ETag"),
		LastMod:    headers.Get("Last-Modified"),
		VaryFields: vary,
	}
	return p.opts.Storage.Put(ctx, key, e)
}

// Revalidated refreshes a stale entry's freshness window after a 304 Not
// Modified response, per spec §4.6, without re-fetching the body.
func (p *Policy) Revalidated(ctx context.Context, key string, stale Entry, headers http.Header) error {
	directives := ParseCacheControl(headers.Get("Cache-Control"))
	ttl := p.opts.DefaultTTL
	if secs, ok := directives.FreshnessWindow(); ok {
		ttl = time.Duration(secs) * time.Second
	}
	now := p.opts.Now()
	stale.StoredAt = now
	stale.ExpiresAt = now.Add(ttl)
	if etag := headers.Get("ETag"); etag != "" {
		stale.ETag = etag
	}
	if lm := headers.Get("Last-Modified"); lm != "" {
		stale.LastMod = lm
	}
	return p.opts.Storage.Put(ctx, key, stale)
}

// Invalidate drops any cached entry for key, used after a non-idempotent
// method (POST/PUT/DELETE/PATCH) succeeds against the same resource.
func (p *Policy) Invalidate(ctx context.Context, key string) error {
	return p.opts.Storage.Delete(ctx, key)
}
