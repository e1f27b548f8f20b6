// Package retry implements the transport-neutral retry flow-control
// primitive (spec §4.3): a predicate-driven attempt loop consulting an
// ordered list of delay strategies, grounded on the teacher's
// pkg/kernel/retry backoff/plan split (Mindburn-Labs-helm) but reworked
// around a live attempt loop instead of a precomputed deterministic plan,
// since spec §4.3 retries based on the *actual* observed result/error of
// each attempt rather than a schedule fixed in advance.
package retry

import (
	"context"
	"time"

	"github.com/oorabona/unireq/pkg/introspect"
)

// Predicate decides whether a failed/unwanted attempt should be retried.
// It is transport-neutral: the HTTP-specific wrapper lives in http.go.
type Predicate func(result any, err error, attempt int) bool

// Strategy computes the delay before the next attempt. Returning ok=false
// means "I have no opinion", letting a later strategy in the list decide
// (spec §4.3 "first strategy returning a defined value wins").
type Strategy interface {
	GetDelay(result any, err error, attempt int) (delay time.Duration, ok bool)
	Node() *introspect.Node
}

// Options configures the attempt loop.
type Options struct {
	Tries   int
	OnRetry func(attempt int, err error, result any)
	// Sleep is overridable for tests so delay assertions don't actually
	// sleep in real time; defaults to a context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Attempt is the operation being retried: it returns either a result or an
// error, mirroring spec §4.3's "capture either a response or an error".
type Attempt func(ctx context.Context, attempt int) (any, error)

// Do runs attempt up to opts.Tries times, consulting predicate and
// strategies between attempts exactly as spec §4.3 describes:
//
//  1. invoke attempt; capture result or error
//  2. on the last attempt, return/rethrow unconditionally
//  3. otherwise ask predicate; a false short-circuits immediately
//  4. call onRetry, compute delay from strategies (first non-zero wins),
//     sleep, and loop
//
// Tries=1 therefore calls attempt exactly once and never sleeps (spec §8
// boundary condition).
func Do(ctx context.Context, attempt Attempt, predicate Predicate, strategies []Strategy, opts Options) (any, error) {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}
	tries := opts.Tries
	if tries <= 0 {
		tries = 1
	}

	var lastResult any
	var lastErr error

	for k := 0; k < tries; k++ {
		lastResult, lastErr = attempt(ctx, k)

		if k == tries-1 {
			return lastResult, lastErr
		}

		if !predicate(lastResult, lastErr, k) {
			return lastResult, lastErr
		}

		if opts.OnRetry != nil {
			opts.OnRetry(k+1, lastErr, lastResult)
		}

		delay := resolveDelay(lastResult, lastErr, k, strategies)
		if err := sleep(ctx, delay); err != nil {
			return lastResult, err
		}
	}

	return lastResult, lastErr
}

func resolveDelay(result any, err error, attempt int, strategies []Strategy) time.Duration {
	for _, s := range strategies {
		if d, ok := s.GetDelay(result, err, attempt); ok && d > 0 {
			return d
		}
	}
	return 0
}

// Node builds the introspection tree for a configured retry (spec §4.13:
// "retry ... gather their argument policies' metadata into children").
func Node(strategies []Strategy, tries int) *introspect.Node {
	children := make([]*introspect.Node, 0, len(strategies))
	for _, s := range strategies {
		children = append(children, s.Node())
	}
	return introspect.New("retry", introspect.KindRetry, map[string]any{"tries": tries}, children...)
}
