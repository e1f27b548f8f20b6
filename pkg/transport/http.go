package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/unireqerr"
)

// HTTPConnector is the reference Connector over net/http. It is
// connectionless: Connect/Disconnect are no-ops per spec §6.1 ("HTTP's
// connector may no-op").
type HTTPConnector struct {
	Client *http.Client
}

// NewHTTPConnector builds a connector with a default client if none is
// given.
func NewHTTPConnector(client *http.Client) *HTTPConnector {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPConnector{Client: client}
}

// Capabilities advertises the feature flags HTTP satisfies, consulted by
// the slot validator for policies declaring RequiredCapabilities.
func (c *HTTPConnector) Capabilities() map[string]bool {
	return map[string]bool{
		"streaming": true,
		"multipart": true,
		"cookies":   true,
	}
}

// Connect is a no-op for HTTP: every request is independent.
func (c *HTTPConnector) Connect(_ context.Context, _ string) (Session, error) {
	return nil, nil
}

// Disconnect is a no-op for HTTP.
func (c *HTTPConnector) Disconnect(_ context.Context, _ Session) error {
	return nil
}

// Request performs one HTTP exchange, translating rc into an *http.Request
// and the result back into the uniform reqkernel.Response envelope.
func (c *HTTPConnector) Request(ctx context.Context, _ Session, rc *reqkernel.Context) (*reqkernel.Response, error) {
	var body io.Reader
	switch b := rc.Body.(type) {
	case nil:
		body = nil
	case []byte:
		body = bytes.NewReader(b)
	case string:
		body = strings.NewReader(b)
	default:
		return nil, unireqerr.New(unireqerr.Serialization, "http connector: body must be []byte or string by the time it reaches the transport")
	}

	req, err := http.NewRequestWithContext(ctx, rc.Method, rc.URL, body)
	if err != nil {
		return nil, unireqerr.Wrap(unireqerr.URLNormalizationFailed, "failed to build HTTP request", err)
	}
	for name, value := range rc.Headers {
		req.Header.Set(name, value)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, unireqerr.Wrap(unireqerr.Network, "HTTP request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unireqerr.Wrap(unireqerr.Network, "failed to read HTTP response body", err)
	}

	headers := reqkernel.NewHeaders()
	for name, values := range resp.Header {
		headers.Set(name, strings.Join(values, ", "))
	}

	return &reqkernel.Response{
		Status:     resp.StatusCode,
		StatusText: resp.Status,
		Headers:    headers,
		Data:       data,
	}, nil
}
