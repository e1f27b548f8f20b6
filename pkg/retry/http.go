package retry

import "github.com/oorabona/unireq/pkg/introspect"

// HTTPResult is the minimal shape an HTTP-flavored Attempt returns, letting
// HTTPPredicate and the Retry-After extractor in ratelimit.go work without
// importing pkg/reqkernel and creating a cycle.
type HTTPResult interface {
	StatusCode() int
	Header(name string) string
}

// HTTPPredicateOptions configures which statuses are considered retriable
// beyond the unconditional >=500 rule (spec §4.3: "network errors and
// 5xx are always retriable; a caller-supplied status set extends that").
type HTTPPredicateOptions struct {
	RetriableStatuses map[int]bool
}

// HTTPPredicate builds a Predicate that retries on transport errors, on any
// 5xx response, or on a status explicitly listed in opts.RetriableStatuses
// (e.g. 429).
func HTTPPredicate(opts HTTPPredicateOptions) Predicate {
	return func(result any, err error, _ int) bool {
		if err != nil {
			return true
		}
		res, ok := result.(HTTPResult)
		if !ok {
			return false
		}
		status := res.StatusCode()
		if status >= 500 {
			return true
		}
		return opts.RetriableStatuses[status]
	}
}

// RetryAfterFromHTTP adapts an HTTPResult into a RetryAfterSource reading
// the standard Retry-After header. Gated to 429 specifically (spec §4.3):
// a 503 commonly carries Retry-After too, but letting the server dictate
// delay for any retriable 5xx would bypass exponential backoff for cases
// the spec reserves that behavior for rate-limit responses only.
func RetryAfterFromHTTP(result any) (string, bool) {
	res, ok := result.(HTTPResult)
	if !ok {
		return "", false
	}
	if res.StatusCode() != 429 {
		return "", false
	}
	v := res.Header("Retry-After")
	return v, v != ""
}

// predicateNode is a small helper so callers can tag HTTPPredicate for
// introspection without a bespoke wrapper type.
func predicateNode(name string, opts map[string]any) *introspect.Node {
	return introspect.New(name, introspect.KindPredicate, opts)
}
