// Command unireq is a thin CLI over the request kernel: enough to issue a
// request through the default retry+cache+dedupe+transport chain and to
// dump that chain's introspection tree. Grounded on the teacher's
// core/cmd/helm flag.Args()-dispatch main (Mindburn-Labs-helm), trimmed
// from its dozen subsystem subcommands down to the two this library
// actually needs to demonstrate.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/oorabona/unireq/pkg/client"
	"github.com/oorabona/unireq/pkg/config"
	"github.com/oorabona/unireq/pkg/dedupe"
	"github.com/oorabona/unireq/pkg/introspect"
	"github.com/oorabona/unireq/pkg/obs"
	"github.com/oorabona/unireq/pkg/ratelimit"
	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/requestid"
	"github.com/oorabona/unireq/pkg/respcache"
	"github.com/oorabona/unireq/pkg/respcache/memstore"
	"github.com/oorabona/unireq/pkg/retry"
	"github.com/oorabona/unireq/pkg/transport"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the CLI entrypoint, factored out of main for testability. A
// leading "--config <path>" pair (before the subcommand) layers a YAML
// profile onto the env-derived defaults.
func Run(args []string, stdout, stderr io.Writer) int {
	args = args[1:] // drop argv[0]

	var configPath string
	if len(args) >= 2 && args[0] == "--config" {
		configPath = args[1]
		args = args[2:]
	}

	if len(args) < 1 {
		fmt.Fprintln(stderr, "Usage: unireq [--config <path>] <get|introspect> [args]")
		return 2
	}

	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			fmt.Fprintln(stderr, "config:", err)
			return 1
		}
		cfg = loaded
	} else {
		cfg = config.Load()
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{}))

	switch args[0] {
	case "get":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "Usage: unireq get <url>")
			return 2
		}
		return runGet(args[1], cfg, logger, stdout, stderr)
	case "introspect":
		return runIntrospect(cfg, stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		return 2
	}
}

// buildChain assembles the default requestid -> dedupe -> ratelimit ->
// retry -> cache -> transport pipeline: dedupe coalesces before a retry
// loop re-issues attempts, and the cache sits innermost next to transport,
// inside the retry loop, so each retry attempt consults the cache first.
func buildChain(cfg *config.Config, logger *slog.Logger, provider *obs.Provider) (*client.Client, error) {
	connector := transport.NewHTTPConnector(http.DefaultClient)
	transportPolicy := transport.Policy(connector, nil)

	cache := respcache.New(respcache.Options{
		Storage:    memstore.New(256),
		DefaultTTL: cfg.CacheDefaultTTL,
	})
	cachedTransport := reqkernel.Policy(func(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
		return cache.Handle(ctx, rc, next)
	})

	retried := retryPolicy(cfg, logger)

	deduper := dedupe.New(dedupe.Options{TTL: cfg.DedupeTTL})
	dedupePolicy := reqkernel.Policy(func(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
		key := rc.Method + " " + rc.URL
		result, err := deduper.Call(ctx, key, func(ctx context.Context) (any, error) {
			return next(ctx, rc)
		})
		if err != nil {
			return nil, err
		}
		return result.(*reqkernel.Response), nil
	})

	throttle := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)

	chain := []reqkernel.Tagged{
		reqkernel.Untagged(provider.Wrap("requestid", requestid.Policy)),
		reqkernel.Untagged(provider.Wrap("dedupe", dedupePolicy)),
		reqkernel.Untagged(provider.Wrap("ratelimit", throttle.Handle)),
		reqkernel.Untagged(provider.Wrap("retry", retried)),
		reqkernel.WithSlot(provider.Wrap("cache", cachedTransport), reqkernel.Slot{Type: reqkernel.SlotCache, Name: "respcache"}),
		reqkernel.WithSlot(provider.Wrap("transport", transportPolicy), reqkernel.Slot{Type: reqkernel.SlotTransport, Name: "http"}),
	}

	return client.New(chain, connector.Capabilities())
}

// retryPolicy wraps retry.Do as a reqkernel.Policy. It lives here rather
// than in pkg/retry because adapting Attempt's `any` result back into a
// *reqkernel.Response is a transport-aware concern, not the retry loop's.
func retryPolicy(cfg *config.Config, logger *slog.Logger) reqkernel.Policy {
	backoff := retry.NewExponentialBackoff(retry.BackoffOptions{
		Initial:    cfg.RetryInitial,
		Max:        cfg.RetryMax,
		Multiplier: cfg.RetryMultiplier,
	})
	predicate := retry.HTTPPredicate(retry.HTTPPredicateOptions{
		RetriableStatuses: map[int]bool{429: true},
	})

	return func(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
		result, err := retry.Do(ctx,
			func(ctx context.Context, attempt int) (any, error) {
				return next(ctx, rc)
			},
			predicate,
			[]retry.Strategy{
				retry.NewRateLimitStrategy(retry.RetryAfterFromHTTP, time.Now),
				backoff,
			},
			retry.Options{
				Tries: cfg.RetryTries,
				OnRetry: func(attempt int, err error, result any) {
					logger.Warn("retrying request", "attempt", attempt, "url", rc.URL, "error", err)
				},
			},
		)
		if err != nil {
			return nil, err
		}
		return result.(*reqkernel.Response), nil
	}
}

func runGet(url string, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider, err := obs.New(ctx, obs.DefaultConfig())
	if err != nil {
		fmt.Fprintln(stderr, "obs init:", err)
		return 1
	}
	defer provider.Shutdown(ctx)

	c, err := buildChain(cfg, logger, provider)
	if err != nil {
		fmt.Fprintln(stderr, "chain assembly:", err)
		return 1
	}

	resp, err := c.Get(ctx, url)
	if err != nil {
		fmt.Fprintln(stderr, "request failed:", err)
		return 1
	}

	fmt.Fprintf(stdout, "%d %s\n", resp.Status, resp.StatusText)
	if data, ok := resp.Data.([]byte); ok {
		stdout.Write(data)
		fmt.Fprintln(stdout)
	}
	return 0
}

func runIntrospect(cfg *config.Config, stdout io.Writer) int {
	root := introspect.New("unireq.chain", introspect.KindOther, map[string]any{
		"retry_tries":       cfg.RetryTries,
		"cache_default_ttl": cfg.CacheDefaultTTL.String(),
		"dedupe_ttl":        cfg.DedupeTTL.String(),
	},
		retry.Node(nil, cfg.RetryTries),
		transport.Node("http", transport.NewHTTPConnector(nil)),
	)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(root); err != nil {
		return 1
	}
	return 0
}
