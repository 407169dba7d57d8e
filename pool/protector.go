package pool

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/safing/portrand/utils/renameio"
)

// Protector protects the pool record at rest.
type Protector interface {
	Protect(record []byte) ([]byte, error)
	Unprotect(data []byte) ([]byte, error)
}

// NopProtector stores the record as is.
type NopProtector struct{}

// Protect returns a copy of the record.
func (NopProtector) Protect(record []byte) ([]byte, error) {
	out := make([]byte, len(record))
	copy(out, record)
	return out, nil
}

// Unprotect returns a copy of the data.
func (NopProtector) Unprotect(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

const envelopeVersion = 1

// envelope is the on-disk format of a protected record.
type envelope struct {
	Version    uint8  `cbor:"1,keyasint"`
	Nonce      []byte `cbor:"2,keyasint"`
	Ciphertext []byte `cbor:"3,keyasint"`
}

// additionalData binds ciphertexts to their purpose.
var additionalData = []byte("portrand entropy pool")

// KeyFileProtector encrypts the record with XChaCha20-Poly1305 under a key
// stored in a separate, user-only readable file. The key is created on first
// use.
type KeyFileProtector struct {
	KeyPath string

	lock sync.Mutex
}

// NewKeyFileProtector returns a protector with the key at keyPath.
func NewKeyFileProtector(keyPath string) *KeyFileProtector {
	return &KeyFileProtector{KeyPath: keyPath}
}

func (kp *KeyFileProtector) loadKey(create bool) ([]byte, error) {
	kp.lock.Lock()
	defer kp.lock.Unlock()

	key, err := os.ReadFile(kp.KeyPath)
	switch {
	case err == nil:
		if len(key) != chacha20poly1305.KeySize {
			clear(key)
			return nil, fmt.Errorf("%w: key file has invalid size", ErrCorrupted)
		}
		return key, nil
	case errors.Is(err, fs.ErrNotExist) && create:
		// create new key below
	default:
		return nil, fmt.Errorf("pool: failed to read key file: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("pool: failed to generate key: %w", err)
	}
	if err := renameio.WriteFile(kp.KeyPath, key, 0o0600); err != nil {
		clear(key)
		return nil, fmt.Errorf("pool: failed to write key file: %w", err)
	}
	return key, nil
}

// Protect encrypts the record.
func (kp *KeyFileProtector) Protect(record []byte) ([]byte, error) {
	key, err := kp.loadKey(true)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	env := envelope{
		Version: envelopeVersion,
		Nonce:   make([]byte, chacha20poly1305.NonceSizeX),
	}
	if _, err := rand.Read(env.Nonce); err != nil {
		return nil, fmt.Errorf("pool: failed to generate nonce: %w", err)
	}
	env.Ciphertext = aead.Seal(nil, env.Nonce, record, additionalData)

	return cbor.Marshal(env)
}

// Unprotect decrypts the record.
func (kp *KeyFileProtector) Unprotect(data []byte) ([]byte, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: invalid envelope: %w", ErrCorrupted, err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", ErrCorrupted, env.Version)
	}
	if len(env.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("%w: invalid nonce", ErrCorrupted)
	}

	key, err := kp.loadKey(false)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	record, err := aead.Open(nil, env.Nonce, env.Ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("%w: decryption failed", ErrCorrupted)
	}
	return record, nil
}
