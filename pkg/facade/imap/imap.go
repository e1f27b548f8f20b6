// Package imap is a protocol facade (spec §6.2) wrapping a client.Client
// with IMAP-flavored methods that build a Context carrying mailbox/range/
// criteria metadata and invoke the same underlying chain an HTTP client
// would use — the facade never reimplements transport logic, it only
// shapes the request.
package imap

import (
	"context"

	"github.com/oorabona/unireq/pkg/client"
	"github.com/oorabona/unireq/pkg/reqkernel"
)

// Facade wraps a client.Client with IMAP-shaped calls.
type Facade struct {
	client *client.Client
	uri    string
}

// New builds a Facade over an already-validated client and the IMAP server
// URI the underlying connector will route to.
func New(c *client.Client, uri string) *Facade {
	return &Facade{client: c, uri: uri}
}

// SearchCriteria names an IMAP SEARCH expression, e.g. "UNSEEN", "FROM foo".
type SearchCriteria string

// FetchRange names a message sequence or UID range, e.g. "1:10", "1:*".
type FetchRange string

// Select invokes the chain with metadata naming the mailbox to select
// (IMAP SELECT/EXAMINE).
func (f *Facade) Select(ctx context.Context, mailbox string) (*reqkernel.Response, error) {
	rc := reqkernel.New("SELECT", f.uri)
	rc.Metadata["mailbox"] = mailbox
	return f.client.Do(ctx, rc)
}

// Search invokes the chain with metadata naming the mailbox and search
// criteria (IMAP SEARCH).
func (f *Facade) Search(ctx context.Context, mailbox string, criteria SearchCriteria) (*reqkernel.Response, error) {
	rc := reqkernel.New("SEARCH", f.uri)
	rc.Metadata["mailbox"] = mailbox
	rc.Metadata["criteria"] = string(criteria)
	return f.client.Do(ctx, rc)
}

// Fetch invokes the chain with metadata naming the mailbox and a message
// range to fetch (IMAP FETCH).
func (f *Facade) Fetch(ctx context.Context, mailbox string, rng FetchRange) (*reqkernel.Response, error) {
	rc := reqkernel.New("FETCH", f.uri)
	rc.Metadata["mailbox"] = mailbox
	rc.Metadata["range"] = string(rng)
	return f.client.Do(ctx, rc)
}
