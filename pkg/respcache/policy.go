package respcache

import (
	"context"
	"net/http"
	"sync"

	"github.com/oorabona/unireq/pkg/introspect"
	"github.com/oorabona/unireq/pkg/reqkernel"
)

// VaryRegistry remembers, per cache key prefix (method+URL), which request
// header names the most recent response's Vary header named, so the next
// request to the same URL can compute the right extended key before it
// has a response to read Vary from.
type VaryRegistry struct {
	mu   sync.Mutex
	vary map[string][]string
}

func newVaryRegistry() *VaryRegistry {
	return &VaryRegistry{vary: make(map[string][]string)}
}

func (v *VaryRegistry) get(base string) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vary[base]
}

func (v *VaryRegistry) set(base string, fields []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vary[base] = fields
}

// Handle is the reqkernel.Policy implementing spec §4.5/§4.6: a fresh hit
// short-circuits the chain; a stale hit with validators is revalidated
// conditionally; everything else is forwarded and, if cacheable, stored.
// Only GET/HEAD requests participate; other methods pass through and, on
// success, invalidate the GET and HEAD entries for the same URL (keyed with
// this request's values of any Vary-named headers), a conservative
// correctness measure against stale reads after a write.
func (p *Policy) Handle(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
	if rc.Method != "GET" && rc.Method != "HEAD" {
		resp, err := next(ctx, rc)
		if err == nil && resp.Ok() {
			reqHeaders := toHTTPHeader(rc.Headers)
			vary := p.varyRegistry().get(rc.URL)
			_ = p.Invalidate(ctx, Key("GET", rc.URL, reqHeaders, vary))
			_ = p.Invalidate(ctx, Key("HEAD", rc.URL, reqHeaders, vary))
		}
		return resp, err
	}

	reqHeaders := toHTTPHeader(rc.Headers)
	vary := p.varyRegistry().get(rc.URL)
	key := Key(rc.Method, rc.URL, reqHeaders, vary)

	entry, found, fresh, err := p.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if found && fresh {
		return entryToResponse(entry, "HIT"), nil
	}

	outbound := rc
	if found {
		outbound = rc.Clone()
		applyConditional(outbound, entry)
	}

	resp, err := next(ctx, outbound)
	if err != nil {
		return nil, err
	}

	if found && resp.Status == http.StatusNotModified {
		if err := p.Revalidated(ctx, key, entry, toHTTPHeader(resp.Headers)); err != nil {
			return nil, err
		}
		return entryToResponse(entry, "REVALIDATED"), nil
	}

	respHeaders := toHTTPHeader(resp.Headers)
	if varyHeader := respHeaders.Get("Vary"); varyHeader != "" {
		vary = splitVary(varyHeader)
		p.varyRegistry().set(rc.URL, vary)
		key = Key(rc.Method, rc.URL, reqHeaders, vary)
	}

	if data, ok := resp.Data.([]byte); ok && resp.Ok() {
		_ = p.Store(ctx, key, resp.Status, respHeaders, data, vary)
	}

	return resp, nil
}

func (p *Policy) varyRegistry() *VaryRegistry {
	if p.vary == nil {
		p.vary = newVaryRegistry()
	}
	return p.vary
}

func applyConditional(rc *reqkernel.Context, stale Entry) {
	if stale.ETag != "" {
		rc.Headers.Set("If-None-Match", stale.ETag)
	}
	if stale.LastMod != "" {
		rc.Headers.Set("If-Modified-Since", stale.LastMod)
	}
}

// entryToResponse rebuilds a *reqkernel.Response from a cache entry,
// stamping x-cache so a caller can tell a served-from-cache response apart
// from one that actually hit the network (spec §4.5 steps 3/4).
func entryToResponse(e Entry, xCache string) *reqkernel.Response {
	headers := reqkernel.NewHeaders()
	for name, values := range e.Headers {
		if len(values) > 0 {
			headers.Set(name, values[0])
		}
	}
	headers.Set("x-cache", xCache)
	return &reqkernel.Response{Status: e.Status, Headers: headers, Data: e.Body}
}

func toHTTPHeader(h reqkernel.Headers) http.Header {
	out := make(http.Header, len(h))
	for name, value := range h {
		out.Set(name, value)
	}
	return out
}

func splitVary(header string) []string {
	var fields []string
	start := 0
	for i := 0; i <= len(header); i++ {
		if i == len(header) || header[i] == ',' {
			field := header[start:i]
			for len(field) > 0 && field[0] == ' ' {
				field = field[1:]
			}
			for len(field) > 0 && field[len(field)-1] == ' ' {
				field = field[:len(field)-1]
			}
			if field != "" {
				fields = append(fields, field)
			}
			start = i + 1
		}
	}
	return fields
}

// Node reports this cache's configuration for introspection.
func (p *Policy) Node() *introspect.Node {
	return introspect.New("response-cache", introspect.KindCache, map[string]any{
		"honorPrivate": p.opts.HonorPrivate,
	})
}
