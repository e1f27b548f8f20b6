// Package schemavalidate gates a request body against a compiled JSON
// Schema before it reaches serialization, failing closed on a mismatch
// instead of letting a malformed body reach the wire. Grounded on the
// teacher's core/pkg/firewall.PolicyFirewall (Mindburn-Labs-helm), which
// compiled a github.com/santhosh-tekuri/jsonschema/v5 schema per tool and
// rejected calls whose params didn't validate; here one schema gates one
// policy instance instead of a per-tool map, since a client chain
// validates one body shape per endpoint it's built for.
package schemavalidate

import (
	"context"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/oorabona/unireq/pkg/introspect"
	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/unireqerr"
)

// Policy validates rc.Body against a compiled schema before calling next.
// The body is passed to the validator as is, so it must already be a
// decoded JSON value (such as map[string]any); a Go struct is not
// marshaled first and fails validation.
type Policy struct {
	schema *jsonschema.Schema
}

// Compile builds a Policy from a raw JSON Schema document (Draft 2020-12).
func Compile(schemaJSON string) (*Policy, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const resourceURL = "mem://unireq/schemavalidate.schema.json"
	if err := c.AddResource(resourceURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, unireqerr.Wrap(unireqerr.Validation, "schemavalidate: load schema", err)
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, unireqerr.Wrap(unireqerr.Validation, "schemavalidate: compile schema", err)
	}
	return &Policy{schema: compiled}, nil
}

// Handle implements reqkernel.Policy. A nil Body passes through
// unvalidated; schemas only gate requests that actually carry a body.
func (p *Policy) Handle(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
	if rc.Body == nil {
		return next(ctx, rc)
	}
	if err := p.schema.Validate(rc.Body); err != nil {
		return nil, unireqerr.Wrap(unireqerr.Validation, "schemavalidate: body failed schema validation", err)
	}
	return next(ctx, rc)
}

// Node reports the policy for introspection.
func (p *Policy) Node() *introspect.Node {
	return introspect.New("schemavalidate", introspect.KindOther, nil)
}
