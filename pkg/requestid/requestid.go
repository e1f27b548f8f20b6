// Package requestid stamps every outbound Context with a unique
// correlation id, so a caller's logs/traces can be joined to whatever the
// far side records against the same header. Grounded on the teacher's
// core/pkg/runtime/obligation/engine.go use of github.com/google/uuid to
// mint record ids (Mindburn-Labs-helm); here the id identifies a request
// instead of an obligation record.
package requestid

import (
	"context"

	"github.com/google/uuid"

	"github.com/oorabona/unireq/pkg/reqkernel"
)

// HeaderName is the header a request id is carried under when not already
// present on the Context.
const HeaderName = "X-Request-Id"

// Policy assigns a fresh id to every request that doesn't already carry
// one, storing it in both the header (for the wire) and Metadata (for
// policies downstream that don't want to re-parse headers).
func Policy(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
	id, ok := rc.Headers.Get(HeaderName)
	if !ok || id == "" {
		id = uuid.New().String()
		rc.Headers.Set(HeaderName, id)
	}
	rc.Metadata["request_id"] = id
	return next(ctx, rc)
}
