package slots_test

import (
	"context"
	"testing"

	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/slots"
	"github.com/oorabona/unireq/pkg/unireqerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopPolicy(ctx context.Context, rc *reqkernel.Context, next reqkernel.Next) (*reqkernel.Response, error) {
	return next(ctx, rc)
}

func TestValidate_DuplicateSlotNames(t *testing.T) {
	chain := []reqkernel.Tagged{
		reqkernel.WithSlot(noopPolicy, reqkernel.Slot{Type: reqkernel.SlotAuth, Name: "bearer"}),
		reqkernel.WithSlot(noopPolicy, reqkernel.Slot{Type: reqkernel.SlotAuth, Name: "bearer"}),
	}

	err := slots.Validate(chain, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, slots.ErrDuplicatePolicy)

	var uerr *unireqerr.Error
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, unireqerr.DuplicatePolicy, uerr.Code)
}

func TestValidate_TransportMustBeLast(t *testing.T) {
	chain := []reqkernel.Tagged{
		reqkernel.WithSlot(noopPolicy, reqkernel.Slot{Type: reqkernel.SlotTransport, Name: "http"}),
		reqkernel.WithSlot(noopPolicy, reqkernel.Slot{Type: reqkernel.SlotOther, Name: "logging"}),
	}

	err := slots.Validate(chain, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, slots.ErrInvalidSlot)
}

func TestValidate_TransportLast_OK(t *testing.T) {
	chain := []reqkernel.Tagged{
		reqkernel.WithSlot(noopPolicy, reqkernel.Slot{Type: reqkernel.SlotOther, Name: "logging"}),
		reqkernel.WithSlot(noopPolicy, reqkernel.Slot{Type: reqkernel.SlotTransport, Name: "http"}),
	}

	assert.NoError(t, slots.Validate(chain, nil))
}

func TestValidate_AuthBeforeParser(t *testing.T) {
	chain := []reqkernel.Tagged{
		reqkernel.WithSlot(noopPolicy, reqkernel.Slot{Type: reqkernel.SlotParser, Name: "json"}),
		reqkernel.WithSlot(noopPolicy, reqkernel.Slot{Type: reqkernel.SlotAuth, Name: "bearer"}),
	}

	err := slots.Validate(chain, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, slots.ErrInvalidSlot)
}

func TestValidate_RequiredCapabilityMissing(t *testing.T) {
	chain := []reqkernel.Tagged{
		reqkernel.WithSlot(noopPolicy, reqkernel.Slot{
			Type:                 reqkernel.SlotOther,
			Name:                 "multipart",
			RequiredCapabilities: []string{"streaming"},
		}),
	}

	err := slots.Validate(chain, map[string]bool{"streaming": false})
	require.Error(t, err)
	assert.ErrorIs(t, err, slots.ErrMissingCapability)

	assert.NoError(t, slots.Validate(chain, map[string]bool{"streaming": true}))
}

func TestValidate_UntaggedPoliciesIgnored(t *testing.T) {
	chain := []reqkernel.Tagged{
		reqkernel.Untagged(noopPolicy),
		reqkernel.Untagged(noopPolicy),
	}
	assert.NoError(t, slots.Validate(chain, nil))
}
