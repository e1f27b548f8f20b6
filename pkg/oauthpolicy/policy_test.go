package oauthpolicy_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/oorabona/unireq/pkg/oauthpolicy"
	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeJWT(exp time.Time) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload, _ := json.Marshal(map[string]any{"exp": exp.Unix()})
	body := base64.RawURLEncoding.EncodeToString(payload)
	return fmt.Sprintf("%s.%s.", header, body)
}

func TestNew_RequiresJWKSUnlessUnsafe(t *testing.T) {
	_, err := oauthpolicy.New(oauthpolicy.Options{
		Supplier: func(ctx context.Context) (string, time.Duration, error) { return "t", time.Hour, nil },
	})
	require.Error(t, err)

	_, err = oauthpolicy.New(oauthpolicy.Options{
		Supplier:        func(ctx context.Context) (string, time.Duration, error) { return "t", time.Hour, nil },
		AllowUnsafeMode: true,
	})
	require.NoError(t, err)
}

func TestHandle_InsertsBearerHeader(t *testing.T) {
	token := fakeJWT(time.Now().Add(time.Hour))
	calls := 0
	p, err := oauthpolicy.New(oauthpolicy.Options{
		AllowUnsafeMode: true,
		TokenURL:        "https://t", ClientID: "c",
		Supplier: func(ctx context.Context) (string, time.Duration, error) {
			calls++
			return token, time.Hour, nil
		},
	})
	require.NoError(t, err)

	rc := reqkernel.New("GET", "https://api.example.com/x")
	resp, err := p.Handle(context.Background(), rc, func(_ context.Context, out *reqkernel.Context) (*reqkernel.Response, error) {
		auth, _ := out.Headers.Get("Authorization")
		assert.Equal(t, "Bearer "+token, auth)
		return &reqkernel.Response{Status: 200, Headers: reqkernel.NewHeaders()}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, 1, calls)
}

func TestHandle_RetriesOnceOn401WithBearerChallenge(t *testing.T) {
	oldToken := fakeJWT(time.Now().Add(time.Hour))
	newToken := fakeJWT(time.Now().Add(time.Hour))
	refreshes := 0
	p, err := oauthpolicy.New(oauthpolicy.Options{
		AllowUnsafeMode: true,
		TokenURL:        "https://t", ClientID: "c",
		Supplier: func(ctx context.Context) (string, time.Duration, error) {
			refreshes++
			if refreshes == 1 {
				return oldToken, time.Hour, nil
			}
			return newToken, time.Hour, nil
		},
	})
	require.NoError(t, err)

	attempts := 0
	rc := reqkernel.New("GET", "https://api.example.com/x")
	resp, err := p.Handle(context.Background(), rc, func(_ context.Context, out *reqkernel.Context) (*reqkernel.Response, error) {
		attempts++
		auth, _ := out.Headers.Get("Authorization")
		if attempts == 1 {
			h := reqkernel.NewHeaders()
			h.Set("WWW-Authenticate", `Bearer realm="api"`)
			return &reqkernel.Response{Status: http.StatusUnauthorized, Headers: h}, nil
		}
		assert.Equal(t, "Bearer "+newToken, auth)
		return &reqkernel.Response{Status: 200, Headers: reqkernel.NewHeaders()}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 2, refreshes)
}

func TestHandle_NoRetryWithoutBearerChallenge(t *testing.T) {
	token := fakeJWT(time.Now().Add(time.Hour))
	p, err := oauthpolicy.New(oauthpolicy.Options{
		AllowUnsafeMode: true,
		Supplier: func(ctx context.Context) (string, time.Duration, error) {
			return token, time.Hour, nil
		},
	})
	require.NoError(t, err)

	attempts := 0
	rc := reqkernel.New("GET", "https://api.example.com/x")
	resp, err := p.Handle(context.Background(), rc, func(_ context.Context, out *reqkernel.Context) (*reqkernel.Response, error) {
		attempts++
		return &reqkernel.Response{Status: http.StatusUnauthorized, Headers: reqkernel.NewHeaders()}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, 1, attempts)
}
