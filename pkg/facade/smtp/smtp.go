// Package smtp is a protocol facade (spec §6.2) wrapping a client.Client
// with SMTP-flavored methods that build a Context carrying envelope
// metadata and invoke the same underlying chain an HTTP client would use.
package smtp

import (
	"context"

	"github.com/oorabona/unireq/pkg/client"
	"github.com/oorabona/unireq/pkg/reqkernel"
)

// Facade wraps a client.Client with SMTP-shaped calls.
type Facade struct {
	client *client.Client
	uri    string
}

// New builds a Facade over an already-validated client and the SMTP
// server URI the underlying connector will route to.
func New(c *client.Client, uri string) *Facade {
	return &Facade{client: c, uri: uri}
}

// Message is the envelope handed to Send.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    []byte
}

// Send invokes the chain with metadata naming the SMTP envelope (spec
// §6.2's "protocol-specific metadata"), deferring body serialization to
// the same serialization policy an HTTP client would use.
func (f *Facade) Send(ctx context.Context, msg Message) (*reqkernel.Response, error) {
	rc := reqkernel.New("SEND", f.uri)
	rc.Metadata["from"] = msg.From
	rc.Metadata["to"] = msg.To
	rc.Metadata["subject"] = msg.Subject
	rc.Body = msg.Body
	return f.client.Do(ctx, rc)
}
