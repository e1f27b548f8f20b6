package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/oorabona/unireq/pkg/introspect"
)

// BackoffOptions configures ExponentialBackoff. Zero-valued fields default
// to initial 200ms, multiplier 2, max 10s. Jitter is a plain bool with no
// default: jitter is off unless Jitter is set to true.
type BackoffOptions struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
	Jitter     bool
	// Rand is overridable for deterministic tests; when nil, each
	// ExponentialBackoff gets its own *rand.Rand seeded from the current time.
	Rand *rand.Rand
}

func (o BackoffOptions) withDefaults() BackoffOptions {
	if o.Initial <= 0 {
		o.Initial = 200 * time.Millisecond
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2
	}
	if o.Max <= 0 {
		o.Max = 10 * time.Second
	}
	return o
}

// ExponentialBackoff is the default Strategy: delay = min(max, initial *
// multiplier^attempt), optionally scaled by a uniform random factor in
// [0.5, 1.5). The capping/exponent shape follows the teacher's
// pkg/kernel/retry backoff (Mindburn-Labs-helm), whose ComputeBackoff used
// a bit-shifted multiplier with a hard ceiling; the jitter itself is
// deliberately NOT the teacher's deterministic SHA256-seeded jitter, since
// spec §4.3 calls for genuine per-call randomness, not a reproducible hash.
type ExponentialBackoff struct {
	opts BackoffOptions
	rng  *rand.Rand
}

// NewExponentialBackoff builds a strategy from opts, applying defaults for
// any zero-valued field.
func NewExponentialBackoff(opts BackoffOptions) *ExponentialBackoff {
	opts = opts.withDefaults()
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ExponentialBackoff{opts: opts, rng: rng}
}

// GetDelay always has an opinion (ok is always true), so it is meant to sit
// last in a strategy list as the fallback after any rate-limit strategy.
func (b *ExponentialBackoff) GetDelay(_ any, _ error, attempt int) (time.Duration, bool) {
	raw := float64(b.opts.Initial) * math.Pow(b.opts.Multiplier, float64(attempt))
	if raw > float64(b.opts.Max) {
		raw = float64(b.opts.Max)
	}
	if b.opts.Jitter {
		factor := 0.5 + b.rng.Float64()
		raw *= factor
		if raw > float64(b.opts.Max) {
			raw = float64(b.opts.Max)
		}
	}
	return time.Duration(raw), true
}

// Node reports the strategy's configuration for introspection (spec §4.13).
func (b *ExponentialBackoff) Node() *introspect.Node {
	return introspect.New("exponential-backoff", introspect.KindStrategy, map[string]any{
		"initial":    b.opts.Initial.String(),
		"multiplier": b.opts.Multiplier,
		"max":        b.opts.Max.String(),
		"jitter":     b.opts.Jitter,
	})
}
