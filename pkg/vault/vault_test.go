package vault_test

import (
	"testing"

	"github.com/oorabona/unireq/pkg/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_SetGetDelete(t *testing.T) {
	v, err := vault.Initialize("correct horse battery staple", vault.ScryptParams{})
	require.NoError(t, err)

	file, err := v.Set("api_key", "sk-123")
	require.NoError(t, err)
	assert.Equal(t, 16, len(file.Salt))
	assert.Equal(t, 12, len(file.IV))

	val, ok, err := v.Get("api_key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sk-123", val)

	file, err = v.Delete("api_key")
	require.NoError(t, err)
	_, ok, err = v.Get("api_key")
	require.NoError(t, err)
	assert.False(t, ok)

	names, err := v.List()
	require.NoError(t, err)
	assert.Empty(t, names)
	_ = file
}

func TestUnlock_RoundTrip(t *testing.T) {
	v, err := vault.Initialize("hunter2", vault.ScryptParams{})
	require.NoError(t, err)
	_, err = v.Set("token", "abc")
	require.NoError(t, err)
	file, err := v.Set("another", "def")
	require.NoError(t, err)

	reopened, err := vault.Unlock(file, "hunter2")
	require.NoError(t, err)

	val, ok, err := reopened.Get("token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", val)
}

func TestUnlock_WrongPassphraseFailsGenerically(t *testing.T) {
	v, err := vault.Initialize("correct", vault.ScryptParams{})
	require.NoError(t, err)
	file, err := v.Set("x", "y")
	require.NoError(t, err)

	_, err = vault.Unlock(file, "incorrect")
	require.Error(t, err)
}

func TestUnlock_TamperedCiphertextFailsGenerically(t *testing.T) {
	v, err := vault.Initialize("correct", vault.ScryptParams{})
	require.NoError(t, err)
	file, err := v.Set("x", "y")
	require.NoError(t, err)

	file.Ciphertext[0] ^= 0xFF
	_, err = vault.Unlock(file, "correct")
	require.Error(t, err)
}

func TestUnlock_TamperedAuthTagFailsGenerically(t *testing.T) {
	v, err := vault.Initialize("correct", vault.ScryptParams{})
	require.NoError(t, err)
	file, err := v.Set("x", "y")
	require.NoError(t, err)

	file.AuthTag[0] ^= 0xFF
	_, err = vault.Unlock(file, "correct")
	require.Error(t, err)
}

func TestLock_ZeroesKeyAndRejectsFurtherOps(t *testing.T) {
	v, err := vault.Initialize("correct", vault.ScryptParams{})
	require.NoError(t, err)
	_, err = v.Set("x", "y")
	require.NoError(t, err)

	v.Lock()

	_, _, err = v.Get("x")
	require.Error(t, err)
	_, err = v.Set("x", "z")
	require.Error(t, err)
}
