package oauthpolicy

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oorabona/unireq/pkg/introspect"
	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/unireqerr"
)

// TokenSupplier obtains a fresh access token, e.g. by running an OAuth
// client-credentials or refresh-token exchange. Implementations typically
// wrap an HTTP call to the provider's token endpoint (the teacher's
// pkg/credentials.GoogleOAuth.RefreshToken is one concrete shape).
type TokenSupplier func(ctx context.Context) (accessToken string, expiresIn time.Duration, err error)

// JWKS resolves a Keyfunc used to verify a JWT's signature. Kept as an
// interface (rather than a concrete fetch implementation) per spec §9's
// "require a JWKS abstraction" — no JWKS-fetching library is present in
// the example corpus, so callers plug in their own resolution.
type JWKS interface {
	Keyfunc(ctx context.Context) jwt.Keyfunc
}

// Options configures the bearer policy (spec §4.9).
type Options struct {
	Supplier        TokenSupplier
	JWKS            JWKS
	SkewSeconds     int
	AutoRefresh     *bool
	OnRefresh       func(token string)
	AllowUnsafeMode bool

	TokenURL, ClientID, Scope string
	SafetyBuffer              time.Duration

	Now func() time.Time
}

func (o Options) autoRefresh() bool {
	if o.AutoRefresh == nil {
		return true
	}
	return *o.AutoRefresh
}

func (o Options) skew() time.Duration {
	if o.SkewSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(o.SkewSeconds) * time.Second
}

// Policy is the constructed bearer-auth policy plus its token cache and
// single-flight refresh group (spec §4.9/§4.10).
type Policy struct {
	opts     Options
	cache    *TokenCache
	group    *refreshGroup
	cacheKey string
}

// New validates and constructs a Policy. Per spec §4.9's startup
// validation, construction fails if JWKS is absent and AllowUnsafeMode is
// false: signature verification without a JWKS is rejected unless the
// caller explicitly opts into unsafe (unverified) decoding.
func New(opts Options) (*Policy, error) {
	if opts.JWKS == nil && !opts.AllowUnsafeMode {
		return nil, unireqerr.New(unireqerr.Validation,
			"oauthpolicy: JWKS is required unless AllowUnsafeMode is set (signature verification cannot be skipped silently)")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Policy{
		opts:     opts,
		cache:    NewTokenCache(opts.Now),
		group:    newRefreshGroup(),
		cacheKey: Key(opts.TokenURL, opts.ClientID, opts.Scope),
	}, nil
}

// Handle is the reqkernel.Policy implementing spec §4.9's per-call steps.
func (p *Policy) Handle(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
	token, err := p.currentToken(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.ensureFresh(ctx, &token); err != nil {
		return nil, err
	}

	authed := rc.WithHeader("Authorization", "Bearer "+token.AccessToken)
	resp, err := next(ctx, authed)
	if err != nil {
		return resp, err
	}

	if resp.Status == http.StatusUnauthorized && p.opts.autoRefresh() && hasBearerChallenge(resp) {
		refreshed, rerr := p.group.Do(p.cacheKey, p.refresh(ctx))
		if rerr != nil {
			return resp, nil
		}
		retryRC := rc.WithHeader("Authorization", "Bearer "+refreshed.AccessToken)
		return next(ctx, retryRC)
	}

	return resp, err
}

// hasBearerChallenge implements spec §6.4's case-insensitive substring
// check against WWW-Authenticate.
func hasBearerChallenge(resp *reqkernel.Response) bool {
	value, _ := resp.Headers.Get("WWW-Authenticate")
	return strings.Contains(strings.ToLower(value), "bearer")
}

func (p *Policy) currentToken(ctx context.Context) (Token, error) {
	if t, ok := p.cache.Get(p.cacheKey); ok {
		return t, nil
	}
	return p.group.Do(p.cacheKey, p.refresh(ctx))
}

func (p *Policy) refresh(ctx context.Context) func() (Token, error) {
	return func() (Token, error) {
		accessToken, expiresIn, err := p.opts.Supplier(ctx)
		if err != nil {
			return Token{}, unireqerr.Wrap(unireqerr.TokenExtraction, "token refresh failed", err)
		}
		p.cache.Set(p.cacheKey, accessToken, expiresIn, p.opts.SafetyBuffer)
		if p.opts.OnRefresh != nil {
			p.opts.OnRefresh(accessToken)
		}
		t, _ := p.cache.Get(p.cacheKey)
		return t, nil
	}
}

// ensureFresh checks the token's exp claim (parsed per spec §4.9 step 2)
// and triggers a single-flight refresh if it expires within the skew
// window, replacing token in place.
func (p *Policy) ensureFresh(ctx context.Context, token *Token) error {
	exp, ok, err := p.extractExpiry(ctx, token.AccessToken)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if p.opts.Now().Add(p.opts.skew()).Before(exp) {
		return nil
	}

	refreshed, err := p.group.Do(p.cacheKey, p.refresh(ctx))
	if err != nil {
		return err
	}
	*token = refreshed
	return nil
}

// Node reports this policy's configuration for introspection (spec §4.13).
func (p *Policy) Node() *introspect.Node {
	return introspect.New("oauth-bearer", introspect.KindAuth, map[string]any{
		"autoRefresh":     p.opts.autoRefresh(),
		"allowUnsafeMode": p.opts.AllowUnsafeMode,
		"skewSeconds":     int(p.opts.skew().Seconds()),
	})
}
