package imap_test

import (
	"context"
	"testing"

	"github.com/oorabona/unireq/pkg/client"
	"github.com/oorabona/unireq/pkg/facade/imap"
	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacade_SearchCarriesMailboxAndCriteria(t *testing.T) {
	echo := reqkernel.WithSlot(func(_ context.Context, rc *reqkernel.Context, _ reqkernel.Next) (*reqkernel.Response, error) {
		return &reqkernel.Response{Status: 200, Data: rc}, nil
	}, reqkernel.Slot{Type: reqkernel.SlotTransport, Name: "imap-echo"})

	c, err := client.New([]reqkernel.Tagged{echo}, nil)
	require.NoError(t, err)

	f := imap.New(c, "imap://mail.example.com")
	resp, err := f.Search(context.Background(), "INBOX", "UNSEEN")
	require.NoError(t, err)

	rc := resp.Data.(*reqkernel.Context)
	assert.Equal(t, "INBOX", rc.Metadata["mailbox"])
	assert.Equal(t, "UNSEEN", rc.Metadata["criteria"])
	assert.Equal(t, "SEARCH", rc.Method)
}
