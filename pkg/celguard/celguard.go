// Package celguard gates a request on a compiled CEL boolean expression
// evaluated against its method/url/headers/metadata, failing closed on a
// compile or evaluation error. Grounded on the teacher's
// core/pkg/governance/policy_evaluator_cel.go CELPolicyEvaluator
// (Mindburn-Labs-helm), trimmed from a module-morphogenesis gate (checking
// a proposed module against system + self policy) down to a single
// per-chain request gate, since a request kernel has one thing to admit
// or deny per call rather than a module lifecycle to police.
package celguard

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/oorabona/unireq/pkg/introspect"
	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/unireqerr"
)

// Policy evaluates a compiled CEL expression against an outbound request
// and blocks the chain when it doesn't evaluate to true.
type Policy struct {
	prg  cel.Program
	expr string
}

// Compile builds a Policy from a CEL boolean expression over `method`,
// `url` (both string), `headers` (map[string]string) and `metadata`
// (map[string]dyn). An expression like
// `method == "GET" || headers["x-allow-write"] == "true"` gates mutating
// calls behind an explicit opt-in header.
func Compile(expr string) (*Policy, error) {
	env, err := cel.NewEnv(
		cel.Variable("method", cel.StringType),
		cel.Variable("url", cel.StringType),
		cel.Variable("headers", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("metadata", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, unireqerr.Wrap(unireqerr.Validation, "celguard: build environment", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, unireqerr.Wrap(unireqerr.Validation, fmt.Sprintf("celguard: compile %q", expr), issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, unireqerr.Wrap(unireqerr.Validation, "celguard: build program", err)
	}

	return &Policy{prg: prg, expr: expr}, nil
}

// Handle implements reqkernel.Policy. A non-boolean result or an
// evaluation error denies the request rather than letting it through
// (same fail-closed convention as pkg/schemavalidate).
func (p *Policy) Handle(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
	headers := make(map[string]string, len(rc.Headers))
	for name, value := range rc.Headers {
		headers[name] = value
	}

	out, _, err := p.prg.Eval(map[string]any{
		"method":   rc.Method,
		"url":      rc.URL,
		"headers":  headers,
		"metadata": rc.Metadata,
	})
	if err != nil {
		return nil, unireqerr.Wrap(unireqerr.Validation, fmt.Sprintf("celguard: evaluate %q", p.expr), err)
	}

	allowed, ok := out.Value().(bool)
	if !ok || !allowed {
		return nil, unireqerr.New(unireqerr.Validation, fmt.Sprintf("celguard: request denied by policy %q", p.expr))
	}

	return next(ctx, rc)
}

// Node reports the guard's expression for introspection.
func (p *Policy) Node() *introspect.Node {
	return introspect.New("cel-guard", introspect.KindOther, map[string]any{"expr": p.expr})
}
