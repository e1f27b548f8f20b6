package retry

import (
	"strconv"
	"time"

	"github.com/oorabona/unireq/pkg/introspect"
)

// RetryAfterSource extracts a raw Retry-After header value (either an
// integer number of seconds or an HTTP-date, per RFC 7231 §7.1.3) from a
// transport-specific result. Kept as a function so this strategy stays
// transport-neutral: the HTTP facade supplies the extraction.
type RetryAfterSource func(result any) (string, bool)

// RateLimitStrategy honors a server-supplied Retry-After value ahead of any
// computed backoff, per spec §4.3 ("a rate-limit signal overrides the
// backoff strategy for that attempt"). Grounded on the teacher's
// pkg/kernel/retry plan.go precedence-list shape (Mindburn-Labs-helm),
// generalized here to a pluggable extractor instead of a fixed header name.
type RateLimitStrategy struct {
	extract RetryAfterSource
	now     func() time.Time
}

// NewRateLimitStrategy builds a strategy reading Retry-After via extract.
// now is overridable for deterministic tests; defaults to time.Now.
func NewRateLimitStrategy(extract RetryAfterSource, now func() time.Time) *RateLimitStrategy {
	if now == nil {
		now = time.Now
	}
	return &RateLimitStrategy{extract: extract, now: now}
}

// GetDelay returns ok=false when no Retry-After value is present, letting a
// later strategy (typically ExponentialBackoff) decide instead.
func (r *RateLimitStrategy) GetDelay(result any, _ error, _ int) (time.Duration, bool) {
	raw, present := r.extract(result)
	if !present || raw == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(raw); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}

	if when, err := http1123(raw); err == nil {
		d := when.Sub(r.now())
		if d < 0 {
			d = 0
		}
		return d, true
	}

	return 0, false
}

func http1123(raw string) (time.Time, error) {
	return time.Parse(time.RFC1123, raw)
}

// Node reports that this strategy is active; it carries no static config.
func (r *RateLimitStrategy) Node() *introspect.Node {
	return introspect.New("retry-after", introspect.KindStrategy, nil)
}
