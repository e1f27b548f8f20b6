// Package secretbackend implements the secret backend resolver (spec
// §4.12): choosing between an OS keychain and the file-backed pkg/vault
// depending on a configured mode, memoizing that choice until reset.
// Grounded on the teacher's pkg/credentials.Store "envFallback" pattern
// (Mindburn-Labs-helm), which chooses between a DB-backed store and
// environment variables at read time; this resolver generalizes that
// choose-a-backend-once idea to keychain-vs-vault with explicit modes
// instead of an always-on fallback.
package secretbackend

import (
	"sync"

	"github.com/oorabona/unireq/pkg/unireqerr"
)

// Mode selects which backend the resolver should prefer (spec §4.12).
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeKeychain Mode = "keychain"
	ModeVault    Mode = "vault"
)

// Backend is the kind a resolver ultimately selects.
type Backend string

const (
	BackendKeychain Backend = "keychain"
	BackendVault    Backend = "vault"
)

// Keychain probes OS-level secret storage availability and enumerates the
// names it holds. No OS-keychain Go library exists in the reference corpus,
// so this is deliberately left as a narrow two-method hook (IsAvailable and
// Names) the caller implements per-platform (documented as a stdlib-only
// boundary, not a gap in this package).
type Keychain interface {
	IsAvailable() bool
	// Names enumerates every secret the keychain backend manages, since
	// some OS stores (spec §4.12) don't support native enumeration and
	// this registry must be kept alongside the backend itself.
	Names() ([]string, error)
}

// Resolution records which backend was chosen and, for auto mode, why.
type Resolution struct {
	Backend Backend
	Reason  string
}

// Resolver memoizes the backend decision for Mode until Reset is called
// (spec §4.12 "the resolver memoizes its decision; reset() forces
// re-resolution").
type Resolver struct {
	mode     Mode
	keychain Keychain

	mu       sync.Mutex
	resolved *Resolution
}

// New builds a Resolver. keychain may be nil only when mode is ModeVault.
func New(mode Mode, keychain Keychain) *Resolver {
	return &Resolver{mode: mode, keychain: keychain}
}

// Resolve returns the memoized decision, computing it on first call.
func (r *Resolver) Resolve() (Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != nil {
		return *r.resolved, nil
	}

	res, err := r.resolveOnce()
	if err != nil {
		return Resolution{}, err
	}
	r.resolved = &res
	return res, nil
}

func (r *Resolver) resolveOnce() (Resolution, error) {
	switch r.mode {
	case ModeVault:
		return Resolution{Backend: BackendVault, Reason: "mode=vault"}, nil

	case ModeKeychain:
		if r.keychain == nil || !r.keychain.IsAvailable() {
			return Resolution{}, unireqerr.New(unireqerr.KeychainUnavailable,
				"secretbackend: keychain mode requested but no keychain is available")
		}
		return Resolution{Backend: BackendKeychain, Reason: "mode=keychain"}, nil

	case ModeAuto:
		if r.keychain != nil && r.keychain.IsAvailable() {
			return Resolution{Backend: BackendKeychain, Reason: "auto: keychain available"}, nil
		}
		return Resolution{Backend: BackendVault, Reason: "auto: keychain unavailable, falling back to vault"}, nil

	default:
		return Resolution{}, unireqerr.New(unireqerr.Validation, "secretbackend: unknown mode "+string(r.mode))
	}
}

// Reset clears the memoized decision, forcing the next Resolve call to
// re-probe (spec §4.12).
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = nil
}
