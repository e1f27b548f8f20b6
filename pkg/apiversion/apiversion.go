// Package apiversion gates a response on a server-advertised API version
// header against a semver constraint, refusing to hand a caller a response
// from a server it isn't compatible with. Grounded on the teacher's
// core/pkg/trust/pack_loader.go, which parses an installed pack's
// github.com/Masterminds/semver/v3 version and refuses an upgrade that
// doesn't satisfy the registry's constraint; here the "pack" being
// version-gated is the remote API a client talks to, checked against the
// version it actually answered with rather than before an install.
package apiversion

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/oorabona/unireq/pkg/introspect"
	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/unireqerr"
)

// Policy checks the Header-named response header against Constraint after
// the next policy in the chain returns, so it applies to this call's
// actual response rather than gating the request itself.
type Policy struct {
	Header     string
	Constraint *semver.Constraints
}

// New builds a Policy requiring the header's value to satisfy constraint
// (e.g. ">= 1.2.0, < 2.0.0"). header defaults to "X-Api-Version" when
// empty.
func New(header, constraint string) (*Policy, error) {
	if header == "" {
		header = "X-Api-Version"
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, unireqerr.Wrap(unireqerr.Validation, fmt.Sprintf("apiversion: parse constraint %q", constraint), err)
	}
	return &Policy{Header: header, Constraint: c}, nil
}

// Handle implements reqkernel.Policy. A missing or unparsable version
// header is treated as incompatible rather than silently passed through,
// matching the teacher's fail-closed pack compatibility check.
func (p *Policy) Handle(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
	resp, err := next(ctx, rc)
	if err != nil {
		return nil, err
	}

	raw, ok := resp.Headers.Get(p.Header)
	if !ok || raw == "" {
		return nil, unireqerr.New(unireqerr.Validation, fmt.Sprintf("apiversion: response missing %s header", p.Header))
	}

	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, unireqerr.Wrap(unireqerr.Validation, fmt.Sprintf("apiversion: parse response version %q", raw), err)
	}

	if !p.Constraint.Check(v) {
		return nil, unireqerr.New(unireqerr.Validation, fmt.Sprintf("apiversion: server version %s does not satisfy %s", v, p.Constraint))
	}

	return resp, nil
}

// Node reports the policy's constraint for introspection.
func (p *Policy) Node() *introspect.Node {
	return introspect.New("apiversion", introspect.KindOther, map[string]any{
		"header":     p.Header,
		"constraint": p.Constraint.String(),
	})
}
