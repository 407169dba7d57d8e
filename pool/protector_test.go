package pool

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFileProtector(t *testing.T) {
	t.Parallel()

	keyPath := filepath.Join(t.TempDir(), "test.key")
	kp := NewKeyFileProtector(keyPath)
	record := []byte("a record with some entropy in it")

	protected, err := kp.Protect(record)
	require.NoError(t, err)
	assert.NotContains(t, string(protected), string(record))

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.EqualValues(t, 32, info.Size())
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o0600), info.Mode().Perm())
	}

	// Nonces are random.
	protected2, err := kp.Protect(record)
	require.NoError(t, err)
	assert.NotEqual(t, protected, protected2)

	unprotected, err := kp.Unprotect(protected)
	require.NoError(t, err)
	assert.Equal(t, record, unprotected)

	// A new protector with the same key file can decrypt.
	unprotected, err = NewKeyFileProtector(keyPath).Unprotect(protected2)
	require.NoError(t, err)
	assert.Equal(t, record, unprotected)

	// Tampering with the ciphertext.
	for pos := len(protected) - len(record) - 16; pos < len(protected); pos++ {
		protected[pos] ^= 0x01
		_, err := kp.Unprotect(protected)
		assert.ErrorIs(t, err, ErrCorrupted, "flip at byte %d", pos)
		protected[pos] ^= 0x01
	}

	// Malformed envelopes.
	_, err = kp.Unprotect([]byte("not cbor"))
	assert.ErrorIs(t, err, ErrCorrupted)
	_, err = kp.Unprotect(protected[:len(protected)-1])
	assert.ErrorIs(t, err, ErrCorrupted)

	// Other key.
	_, err = NewKeyFileProtector(filepath.Join(t.TempDir(), "other.key")).Unprotect(protected)
	assert.Error(t, err)

	// Broken key file.
	require.NoError(t, os.WriteFile(keyPath, []byte("short"), 0o0600))
	_, err = kp.Unprotect(protected)
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestNopProtector(t *testing.T) {
	t.Parallel()

	record := []byte{1, 2, 3}
	protected, err := NopProtector{}.Protect(record)
	require.NoError(t, err)
	assert.Equal(t, record, protected)

	protected[0] = 9
	assert.Equal(t, byte(1), record[0], "protector must copy")

	unprotected, err := NopProtector{}.Unprotect(protected)
	require.NoError(t, err)
	assert.Equal(t, protected, unprotected)
}
