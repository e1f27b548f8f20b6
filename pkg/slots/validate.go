// Package slots implements the static-like chain validator (spec §4.2):
// it rejects malformed policy chains once, at client-build time, instead
// of failing confusingly mid-request.
package slots

import (
	"fmt"

	"github.com/oorabona/unireq/pkg/reqkernel"
	"github.com/oorabona/unireq/pkg/unireqerr"
)

type slotKey struct {
	Type reqkernel.SlotType
	Name string
}

// Validate enforces the four rules of spec §4.2 against a tagged chain and
// the transport's declared capabilities. Policies without slot metadata are
// ignored, per spec. Returns the first violation found; callers that want
// every violation should call it after filtering the chain.
func Validate(chain []reqkernel.Tagged, capabilities map[string]bool) error {
	if err := checkDuplicates(chain); err != nil {
		return err
	}
	if err := checkTransportLast(chain); err != nil {
		return err
	}
	if err := checkAuthBeforeParser(chain); err != nil {
		return err
	}
	if err := checkCapabilities(chain, capabilities); err != nil {
		return err
	}
	return nil
}

func checkDuplicates(chain []reqkernel.Tagged) error {
	seen := make(map[slotKey]bool, len(chain))
	for _, t := range chain {
		if t.Slot == nil {
			continue
		}
		key := slotKey{t.Slot.Type, t.Slot.Name}
		if seen[key] {
			return unireqerr.Wrap(unireqerr.DuplicatePolicy,
				fmt.Sprintf("duplicate policy slot (%s, %s)", t.Slot.Type, t.Slot.Name),
				ErrDuplicatePolicy)
		}
		seen[key] = true
	}
	return nil
}

func checkTransportLast(chain []reqkernel.Tagged) error {
	for i, t := range chain {
		if t.Slot != nil && t.Slot.Type == reqkernel.SlotTransport && i != len(chain)-1 {
			return unireqerr.Wrap(unireqerr.InvalidSlot,
				fmt.Sprintf("transport policy %q must be last in the chain", t.Slot.Name),
				ErrInvalidSlot)
		}
	}
	return nil
}

func checkAuthBeforeParser(chain []reqkernel.Tagged) error {
	seenParser := -1
	for i, t := range chain {
		if t.Slot == nil {
			continue
		}
		switch t.Slot.Type {
		case reqkernel.SlotParser:
			if seenParser == -1 {
				seenParser = i
			}
		case reqkernel.SlotAuth:
			if seenParser != -1 && i > seenParser {
				return unireqerr.Wrap(unireqerr.InvalidSlot,
					fmt.Sprintf("auth policy %q must precede any parser policy", t.Slot.Name),
					ErrInvalidSlot)
			}
		}
	}
	return nil
}

func checkCapabilities(chain []reqkernel.Tagged, capabilities map[string]bool) error {
	for _, t := range chain {
		if t.Slot == nil {
			continue
		}
		for _, required := range t.Slot.RequiredCapabilities {
			if !capabilities[required] {
				return unireqerr.Wrap(unireqerr.MissingCapability,
					fmt.Sprintf("policy %q requires capability %q which the transport does not advertise", t.Slot.Name, required),
					ErrMissingCapability)
			}
		}
	}
	return nil
}

// Sentinel causes usable with errors.Is, wrapped by the unireqerr.Error
// values above so both `errors.Is(err, slots.ErrInvalidSlot)` and
// `errors.As(err, &unireqErr)` work.
var (
	ErrDuplicatePolicy  = fmt.Errorf("slots: duplicate policy")
	ErrInvalidSlot      = fmt.Errorf("slots: invalid slot ordering")
	ErrMissingCapability = fmt.Errorf("slots: missing required capability")
)
