// Package ratelimit throttles outbound calls through a chain, independent
// of pkg/retry's server-driven Retry-After handling: this is a client-
// imposed cap, useful when a caller must stay under a provider's quota
// rather than merely react to one. Grounded on the teacher's
// core/pkg/api/middleware.go GlobalRateLimiter (Mindburn-Labs-helm), which
// keyed a golang.org/x/time/rate.Limiter per visitor IP on the server
// side; here a Policy throttles a single client's outbound calls, so one
// limiter instance is enough.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/oorabona/unireq/pkg/introspect"
	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/unireqerr"
)

// Policy wraps a limiter in a reqkernel.Policy that blocks until a token
// is available (or the context is cancelled) before calling next.
type Policy struct {
	limiter *rate.Limiter
}

// New builds a Policy allowing rps requests per second with the given
// burst capacity.
func New(rps float64, burst int) *Policy {
	return &Policy{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Handle implements reqkernel.Policy.
func (p *Policy) Handle(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, unireqerr.Wrap(unireqerr.Timeout, "ratelimit: wait for token", err)
	}
	return next(ctx, rc)
}

// Node reports the configured rate/burst for introspection.
func (p *Policy) Node() *introspect.Node {
	return introspect.New("ratelimit", introspect.KindOther, map[string]any{
		"limit": float64(p.limiter.Limit()),
		"burst": p.limiter.Burst(),
	})
}
