package oauthpolicy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oorabona/unireq/pkg/unireqerr"
)

// extractExpiry parses the token's exp claim, verifying the signature via
// the configured JWKS when present; when JWKS is absent (AllowUnsafeMode
// only, enforced at construction in New) it falls back to an unverified
// base64url+JSON decode of the payload segment (spec §4.9 step 2, §9's
// "unverified decode still falls back to manual base64url+JSON").
func (p *Policy) extractExpiry(ctx context.Context, token string) (time.Time, bool, error) {
	if token == "" {
		return time.Time{}, false, nil
	}

	if p.opts.JWKS != nil {
		return p.extractExpiryVerified(ctx, token)
	}
	return extractExpiryUnsafe(token)
}

func (p *Policy) extractExpiryVerified(ctx context.Context, token string) (time.Time, bool, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, p.opts.JWKS.Keyfunc(ctx))
	if err != nil {
		return time.Time{}, false, unireqerr.Wrap(unireqerr.TokenExtraction, "JWT signature verification failed", err)
	}
	return expiryFromClaims(claims)
}

// extractExpiryUnsafe decodes the payload segment without verifying the
// signature. It tries jwt.ParseUnverified first; only a token the library
// rejects falls back to extractExpiryRaw's manual base64url+JSON decode.
func extractExpiryUnsafe(token string) (time.Time, bool, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	_, _, err := parser.ParseUnverified(token, claims)
	if err != nil {
		// Malformed tokens fall back to a raw manual decode of the
		// payload segment, matching spec §9's base64url+JSON fallback
		// for non-standard or partial tokens the library itself rejects.
		return extractExpiryRaw(token)
	}
	return expiryFromClaims(claims)
}

func extractExpiryRaw(token string) (time.Time, bool, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return time.Time{}, false, nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}, false, nil
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, false, nil
	}
	expVal, ok := claims["exp"]
	if !ok {
		return time.Time{}, false, nil
	}
	expFloat, ok := expVal.(float64)
	if !ok {
		return time.Time{}, false, nil
	}
	return time.Unix(int64(expFloat), 0), true, nil
}

func expiryFromClaims(claims jwt.MapClaims) (time.Time, bool, error) {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false, nil
	}
	return exp.Time, true, nil
}
