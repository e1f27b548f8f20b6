package reqkernel

import gocontext "context"

// Next is the continuation a Policy invokes to hand control to the rest of
// the chain (spec §4.1). A well-behaved Policy calls Next at most once,
// except short-circuiting policies (a cache hit, a dedupe coalesce) that
// never call it and must produce a Response themselves.
type Next func(ctx gocontext.Context, rc *Context) (*Response, error)

// Policy is the fundamental middleware unit (spec §3 "Policy"): a function
// of the inbound Context and a Next continuation, returning a Response.
// gocontext.Context carries cancellation/deadlines (the Go realization of
// spec §5's "abort signal propagated through context metadata"); *Context
// carries the protocol-agnostic request record.
type Policy func(ctx gocontext.Context, rc *Context, next Next) (*Response, error)

// SlotType is the typed role a policy plays in a chain (GLOSSARY "Slot").
type SlotType string

const (
	SlotAuth      SlotType = "Auth"
	SlotTransport SlotType = "Transport"
	SlotParser    SlotType = "Parser"
	SlotRetry     SlotType = "Retry"
	SlotCache     SlotType = "Cache"
	SlotOther     SlotType = "Other"
)

// Slot is the metadata a policy MAY carry for the validator (spec §4.2).
type Slot struct {
	Type                 SlotType
	Name                 string
	RequiredCapabilities []string
}

// Tagged pairs a Policy with its optional Slot and introspection metadata,
// matching Design Note §9's "attach the slot record to each policy through
// an associated struct" (the statically-typed substitute for runtime
// dynamic dispatch on metadata fields).
type Tagged struct {
	Policy Policy
	Slot   *Slot // nil if the policy declares no slot
	Node   any   // optional *introspect.Node, kept as `any` to avoid an import cycle
}

// WithSlot attaches slot metadata to a Policy, producing a Tagged entry
// usable directly in a chain passed to Compose or to slots.Validate.
func WithSlot(p Policy, slot Slot) Tagged {
	return Tagged{Policy: p, Slot: &slot}
}

// Untagged wraps a bare Policy with no slot metadata (ignored by the
// validator per spec §4.2 "Policies without slot metadata are ignored").
func Untagged(p Policy) Tagged {
	return Tagged{Policy: p}
}

// Compose builds one Policy out of an ordered chain, invoking
// P0(ctx, λc→P1(c, λc→…(c, terminal))) as described in spec §4.1. The
// composition is associative: Compose(Compose(a,b), c) and
// Compose(a, Compose(b,c)) behave identically to Compose(a,b,c) because
// nesting closures this way only ever changes where the parentheses are,
// never the call order (spec §8 "composition is associative").
func Compose(policies ...Policy) Policy {
	if len(policies) == 0 {
		return func(ctx gocontext.Context, rc *Context, next Next) (*Response, error) {
			return next(ctx, rc)
		}
	}
	head := policies[0]
	if len(policies) == 1 {
		return head
	}
	rest := Compose(policies[1:]...)
	return func(ctx gocontext.Context, rc *Context, next Next) (*Response, error) {
		return head(ctx, rc, func(ctx gocontext.Context, rc *Context) (*Response, error) {
			return rest(ctx, rc, next)
		})
	}
}

// ComposeTagged extracts the bare policies from a Tagged chain (preserving
// order) and composes them, for callers that built the chain with
// slots.Validate in mind.
func ComposeTagged(chain []Tagged) Policy {
	policies := make([]Policy, len(chain))
	for i, t := range chain {
		policies[i] = t.Policy
	}
	return Compose(policies...)
}

// Terminal is the innermost Next passed to the first policy in a chain: it
// has no further policy to call, so a chain lacking a Transport at the end
// reaching it indicates a misconfigured pipeline.
func Terminal(ctx gocontext.Context, rc *Context) (*Response, error) {
	return nil, ErrNoTransport
}

// ErrNoTransport is returned by Terminal when a chain runs off its end
// without a Transport policy ever producing a Response.
var ErrNoTransport = noTransportErr{}

type noTransportErr struct{}

func (noTransportErr) Error() string { return "reqkernel: chain exhausted without a transport response" }
