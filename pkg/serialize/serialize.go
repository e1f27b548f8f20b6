// Package serialize implements the serialization policy (spec §4.7) and
// the multipart form assembly policy (spec §4.8). Grounded on the
// teacher's pkg/crypto.CanonicalMarshal (Mindburn-Labs-helm) for the idea
// of a single deterministic encode step gating what goes on the wire,
// generalized here from canonical-JSON-for-hashing to
// descriptor-to-bytes-for-transport.
package serialize

import (
	"context"

	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/unireqerr"
)

// Policy is the reqkernel.Policy implementing §4.7: if the context's body
// is a BodyDescriptor, replace it with its serialized bytes and assign
// Content-Type when the descriptor declares one, no header is already
// set, and the data isn't form-like (the multipart layer computes its own
// boundary). Any other body passes through unchanged.
func Policy(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
	descriptor, ok := rc.Body.(*reqkernel.BodyDescriptor)
	if !ok {
		return next(ctx, rc)
	}

	data, err := descriptor.Serialize()
	if err != nil {
		return nil, unireqerr.Wrap(unireqerr.Serialization, "body descriptor serialization failed", err)
	}

	cloned := rc.Clone()
	cloned.Body = data

	if existing, hasHeader := cloned.Headers.Get("Content-Type"); (!hasHeader || existing == "") &&
		descriptor.ContentType != "" && !isFormLike(descriptor.Data) {
		cloned.Headers.Set("Content-Type", descriptor.ContentType)
	}

	return next(ctx, cloned)
}

// isFormLike reports whether a descriptor's underlying data is a
// multipart form container, whose Content-Type (including the boundary
// parameter) is computed by the multipart assembler in multipart.go
// rather than taken from the descriptor's static ContentType field.
func isFormLike(data any) bool {
	_, ok := data.(*Form)
	return ok
}
