// Package reqkernel implements the protocol-agnostic request kernel: the
// per-request Context/Response envelope and the onion-model policy chain
// executor that composes them (spec §4.1, §3).
package reqkernel

import "strings"

// Headers is a case-insensitive, single-valued header map. Multi-value
// headers are folded into a comma-joined list by the caller before storing,
// matching spec §3's "multi-value folded into a comma list".
type Headers map[string]string

// NewHeaders builds an empty Headers map.
func NewHeaders() Headers {
	return make(Headers)
}

// Get looks up a header case-insensitively.
func (h Headers) Get(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	v, ok := h[canonicalHeader(name)]
	return v, ok
}

// Set stores a header under its canonical (lowercased) key.
func (h Headers) Set(name, value string) {
	h[canonicalHeader(name)] = value
}

// Del removes a header.
func (h Headers) Del(name string) {
	delete(h, canonicalHeader(name))
}

// Clone returns a shallow copy, used whenever a policy needs to produce a
// new Context without mutating the one its predecessor handed it.
func (h Headers) Clone() Headers {
	out := make(Headers, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

func canonicalHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BodyDescriptor defers serialization of a body to the serialization policy
// (spec §3 "Body descriptor"), so earlier policies can attach structured
// data without knowing the wire format.
type BodyDescriptor struct {
	Kind        string // always "BodyDescriptor"; present for introspection/debug dumps
	Data        any
	ContentType string
	Serialize   func() ([]byte, error)
}

// NewBodyDescriptor constructs a tagged BodyDescriptor.
func NewBodyDescriptor(data any, contentType string, serialize func() ([]byte, error)) *BodyDescriptor {
	return &BodyDescriptor{Kind: "BodyDescriptor", Data: data, ContentType: contentType, Serialize: serialize}
}

// Context is the per-request record threaded through a policy chain.
// Callers MUST treat it as immutable: a policy that needs to change the
// outbound request calls With* to obtain a new Context rather than mutating
// this one in place (spec §3 invariant).
type Context struct {
	URL      string
	Method   string
	Headers  Headers
	Body     any // nil, []byte, string, a structured value, *BodyDescriptor, a StreamSource, or FormData
	Metadata map[string]any
}

// New builds a Context with empty headers/metadata.
func New(method, url string) *Context {
	return &Context{
		Method:   strings.ToUpper(method),
		URL:      url,
		Headers:  NewHeaders(),
		Metadata: make(map[string]any),
	}
}

// Clone returns a deep-enough copy for a policy to mutate safely: headers
// and metadata are copied, Body is shared by reference (bodies are treated
// as immutable values or descriptors, never mutated in place).
func (c *Context) Clone() *Context {
	clone := &Context{
		URL:    c.URL,
		Method: c.Method,
		Body:   c.Body,
	}
	clone.Headers = c.Headers.Clone()
	clone.Metadata = make(map[string]any, len(c.Metadata))
	for k, v := range c.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// WithHeader returns a clone with the given header set.
func (c *Context) WithHeader(name, value string) *Context {
	clone := c.Clone()
	clone.Headers.Set(name, value)
	return clone
}

// WithBody returns a clone carrying a new body.
func (c *Context) WithBody(body any) *Context {
	clone := c.Clone()
	clone.Body = body
	return clone
}

// WithMetadata returns a clone with one metadata key set.
func (c *Context) WithMetadata(key string, value any) *Context {
	clone := c.Clone()
	clone.Metadata[key] = value
	return clone
}

// Meta reads a metadata value.
func (c *Context) Meta(key string) (any, bool) {
	if c.Metadata == nil {
		return nil, false
	}
	v, ok := c.Metadata[key]
	return v, ok
}
