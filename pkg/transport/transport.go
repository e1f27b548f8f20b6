// Package transport defines the Connector contract (spec §6.1): the
// narrow interface a concrete protocol implementation (HTTP, SMTP, IMAP)
// satisfies so the kernel can route contexts through it without ever
// parsing its wire format. Grounded on the teacher's
// pkg/connector.zerotrust-style adapter boundary (Mindburn-Labs-helm),
// generalized from a trust-gated proxy to a bare I/O boundary since the
// request kernel's transport concern is routing, not policy enforcement
// (that lives in the policy chain itself).
package transport

import (
	"context"

	"github.com/oorabona/unireq/pkg/introspect"
	"github.com/oorabona/unireq/pkg/reqkernel"
)

// Session is an opaque, transport-defined handle returned by Connect for
// stateful protocols (an IMAP connection, an SMTP session). HTTP's
// connector may return nil since each request is independent.
type Session any

// Connector performs the actual I/O for a transport policy. The core
// never interprets Session or a Response's Data beyond the uniform
// envelope; those remain transport-specific.
type Connector interface {
	// Capabilities reports the feature flags the slot validator checks
	// against policies' RequiredCapabilities (spec §4.2/§6.1).
	Capabilities() map[string]bool

	// Connect establishes a Session for stateful protocols; returns a nil
	// Session for connectionless transports like HTTP.
	Connect(ctx context.Context, uri string) (Session, error)

	// Request performs one request/response exchange over session (which
	// may be nil).
	Request(ctx context.Context, session Session, rc *reqkernel.Context) (*reqkernel.Response, error)

	// Disconnect releases a Session. A no-op for connectionless transports.
	Disconnect(ctx context.Context, session Session) error
}

// Policy adapts a Connector into a reqkernel.Policy that terminates a
// chain (spec §4.1: "the final policy in a valid chain is the Transport").
// It ignores next entirely, since nothing follows the transport in a
// valid chain.
func Policy(connector Connector, session Session) reqkernel.Policy {
	return func(ctx context.Context, rc *reqkernel.Context, _ reqkernel.Next) (*reqkernel.Response, error) {
		return connector.Request(ctx, session, rc)
	}
}

// Node reports the transport's advertised capabilities for introspection.
func Node(name string, connector Connector) *introspect.Node {
	caps := make(map[string]any, len(connector.Capabilities()))
	for k, v := range connector.Capabilities() {
		caps[k] = v
	}
	return introspect.New(name, introspect.KindOther, caps)
}
