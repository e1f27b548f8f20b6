// Package vault implements the secret vault (spec §4.11): an AES-256-GCM
// encrypted map of secrets, keyed by a passphrase-derived scrypt key,
// persisted as a single JSON envelope file. Grounded on the teacher's
// pkg/credentials.Store (Mindburn-Labs-helm), which already encrypts
// individual token fields with AES-256-GCM + a fixed 32-byte key; this
// package generalizes that to a passphrase-derived key (via scrypt, spec's
// requirement) and a whole-map envelope instead of per-column encryption.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"io"
	"sync"

	"github.com/oorabona/unireq/pkg/unireqerr"
	"golang.org/x/crypto/scrypt"
)

// ScryptParams are the default key-derivation parameters (spec §4.11).
type ScryptParams struct {
	N, R, P, KeyLen int
}

// DefaultScryptParams matches spec §4.11's defaults exactly.
var DefaultScryptParams = ScryptParams{N: 1 << 15, R: 8, P: 1, KeyLen: 32}

// File is the on-disk envelope format (spec §6.3): JSON with base64
// binary fields via encoding/json's native []byte handling.
type File struct {
	CacheVersion int          `json:"cacheVersion"`
	Ciphertext   []byte       `json:"ciphertext"`
	IV           []byte       `json:"iv"`
	AuthTag      []byte       `json:"authTag"`
	Salt         []byte       `json:"salt"`
	ScryptParams ScryptParams `json:"scryptParams"`
}

const currentCacheVersion = 1

// Vault holds a decrypted secrets map in memory once unlocked. Key
// material is held only in memory and zeroed by Lock, per spec §5's "Vault
// key material ... lock() must overwrite it before releasing references".
type Vault struct {
	mu      sync.Mutex
	key     []byte
	salt    []byte
	params  ScryptParams
	secrets map[string]string
	locked  bool
}

// Initialize creates a fresh vault: a new random salt, a key derived from
// passphrase via scrypt, and an empty secrets map (spec §4.11
// "initialize(passphrase) creates a fresh salt + empty vault").
func Initialize(passphrase string, params ScryptParams) (*Vault, error) {
	if params == (ScryptParams{}) {
		params = DefaultScryptParams
	}
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, unireqerr.Wrap(unireqerr.Validation, "vault: failed to generate salt", err)
	}
	key, err := deriveKey(passphrase, salt, params)
	if err != nil {
		return nil, err
	}
	return &Vault{key: key, salt: salt, params: params, secrets: make(map[string]string)}, nil
}

// Unlock decrypts an existing File using passphrase, recomputing the key
// from the file's stored salt and scrypt params (spec §4.11 "unlock
// recomputes the key from the stored salt and the passphrase").
func Unlock(f File, passphrase string) (*Vault, error) {
	key, err := deriveKey(passphrase, f.Salt, f.ScryptParams)
	if err != nil {
		return nil, err
	}

	plaintext, err := decrypt(key, f.IV, f.Ciphertext, f.AuthTag)
	if err != nil {
		// Tamper detection (spec §4.11): never reveal whether the
		// ciphertext or the auth tag was at fault.
		return nil, unireqerr.New(unireqerr.Validation, "vault: unlock failed (invalid passphrase or corrupted vault)")
	}

	var secrets map[string]string
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, unireqerr.Wrap(unireqerr.Validation, "vault: decrypted payload is not valid JSON", err)
	}

	return &Vault{key: key, salt: f.Salt, params: f.ScryptParams, secrets: secrets}, nil
}

func deriveKey(passphrase string, salt []byte, params ScryptParams) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, params.N, params.R, params.P, params.KeyLen)
	if err != nil {
		return nil, unireqerr.Wrap(unireqerr.Validation, "vault: key derivation failed", err)
	}
	return key, nil
}

// Lock zeroes the in-memory key and marks the vault unusable until
// re-unlocked (spec §4.11 "lock() zeroes the in-memory key").
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.key {
		v.key[i] = 0
	}
	v.key = nil
	v.secrets = nil
	v.locked = true
}

func (v *Vault) requireUnlocked() error {
	if v.locked || v.key == nil {
		return unireqerr.New(unireqerr.Validation, "vault: locked")
	}
	return nil
}

// Get returns a secret's plaintext value.
func (v *Vault) Get(name string) (string, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireUnlocked(); err != nil {
		return "", false, err
	}
	val, ok := v.secrets[name]
	return val, ok, nil
}

// List returns every secret name currently stored.
func (v *Vault) List() ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(v.secrets))
	for k := range v.secrets {
		names = append(names, k)
	}
	return names, nil
}

// Set stores name=value and returns a freshly re-encrypted File, per spec
// §4.11 "each mutating operation re-encrypts with a fresh IV".
func (v *Vault) Set(name, value string) (File, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireUnlocked(); err != nil {
		return File{}, err
	}
	v.secrets[name] = value
	return v.sealLocked()
}

// Delete removes name and returns a freshly re-encrypted File.
func (v *Vault) Delete(name string) (File, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireUnlocked(); err != nil {
		return File{}, err
	}
	delete(v.secrets, name)
	return v.sealLocked()
}

// Seal encrypts the current secrets map into a File without mutating it,
// used after Initialize to produce the first on-disk envelope.
func (v *Vault) Seal() (File, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireUnlocked(); err != nil {
		return File{}, err
	}
	return v.sealLocked()
}

// sealLocked encrypts v.secrets under a fresh random IV. Callers must hold
// v.mu.
func (v *Vault) sealLocked() (File, error) {
	plaintext, err := json.Marshal(v.secrets)
	if err != nil {
		return File{}, unireqerr.Wrap(unireqerr.Serialization, "vault: failed to encode secrets", err)
	}

	iv := make([]byte, 12) // 96-bit IV per spec §4.11
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return File{}, unireqerr.Wrap(unireqerr.Validation, "vault: failed to generate IV", err)
	}

	ciphertext, tag, err := encrypt(v.key, iv, plaintext)
	if err != nil {
		return File{}, err
	}

	return File{
		CacheVersion: currentCacheVersion,
		Ciphertext:   ciphertext,
		IV:           iv,
		AuthTag:      tag,
		Salt:         v.salt,
		ScryptParams: v.params,
	}, nil
}

// encrypt seals plaintext under key/iv, returning ciphertext and auth tag
// as separate slices (spec §4.11 permits either concatenated or separate
// storage; this package stores them separately for a self-describing
// envelope).
func encrypt(key, iv, plaintext []byte) (ciphertext, tag []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, unireqerr.Wrap(unireqerr.Validation, "vault: cipher init failed", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, nil, unireqerr.Wrap(unireqerr.Validation, "vault: GCM init failed", err)
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	tagSize := gcm.Overhead()
	return sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:], nil
}

func decrypt(key, iv, ciphertext, tag []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, err
	}
	sealed := append(append([]byte(nil), ciphertext...), tag...)
	return gcm.Open(nil, iv, sealed, nil)
}
