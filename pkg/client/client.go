// Package client implements the typed client surface (spec §6.2): a
// validated policy chain exposed through method-sugar helpers
// (Get/Post/Put/Patch/Delete/Head/Options) that each build a Context and
// invoke the chain uniformly.
package client

import (
	"context"

	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/slots"
)

// Client wraps a validated policy chain (spec §4.1: "a Client wraps a
// validated chain of Policies").
type Client struct {
	chain reqkernel.Policy
}

// New validates chain against capabilities (spec §4.2) and, on success,
// wraps the composed policy in a Client. Validation errors surface only
// here, never per-request (spec §7 "Propagation policy").
func New(chain []reqkernel.Tagged, capabilities map[string]bool) (*Client, error) {
	if err := slots.Validate(chain, capabilities); err != nil {
		return nil, err
	}
	return &Client{chain: reqkernel.ComposeTagged(chain)}, nil
}

// CallOption mutates a Context before it enters the chain, letting a
// per-call addendum (an extra header, a policy override recorded in
// metadata, a body descriptor) ride alongside the method sugar.
type CallOption func(*reqkernel.Context)

// WithHeader sets a request header for one call.
func WithHeader(name, value string) CallOption {
	return func(rc *reqkernel.Context) { rc.Headers.Set(name, value) }
}

// WithBody attaches a body (raw bytes, string, or *reqkernel.BodyDescriptor).
func WithBody(body any) CallOption {
	return func(rc *reqkernel.Context) { rc.Body = body }
}

// WithMetadata attaches one per-request metadata entry, used by facades to
// carry protocol-specific addenda (mailbox, range, criteria) through to a
// transport that understands them.
func WithMetadata(key string, value any) CallOption {
	return func(rc *reqkernel.Context) { rc.Metadata[key] = value }
}

func (c *Client) do(ctx context.Context, method, url string, opts ...CallOption) (*reqkernel.Response, error) {
	rc := reqkernel.New(method, url)
	for _, opt := range opts {
		opt(rc)
	}
	return c.chain(ctx, rc, reqkernel.Terminal)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string, opts ...CallOption) (*reqkernel.Response, error) {
	return c.do(ctx, "GET", url, opts...)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, url string, opts ...CallOption) (*reqkernel.Response, error) {
	return c.do(ctx, "POST", url, opts...)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, url string, opts ...CallOption) (*reqkernel.Response, error) {
	return c.do(ctx, "PUT", url, opts...)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, url string, opts ...CallOption) (*reqkernel.Response, error) {
	return c.do(ctx, "PATCH", url, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, url string, opts ...CallOption) (*reqkernel.Response, error) {
	return c.do(ctx, "DELETE", url, opts...)
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, url string, opts ...CallOption) (*reqkernel.Response, error) {
	return c.do(ctx, "HEAD", url, opts...)
}

// Options issues an OPTIONS request.
func (c *Client) Options(ctx context.Context, url string, opts ...CallOption) (*reqkernel.Response, error) {
	return c.do(ctx, "OPTIONS", url, opts...)
}

// Do invokes the chain with a caller-built Context directly, for callers
// needing full control (facades use this).
func (c *Client) Do(ctx context.Context, rc *reqkernel.Context) (*reqkernel.Response, error) {
	return c.chain(ctx, rc, reqkernel.Terminal)
}
