// Package digestrand provides deterministic, reseedable random generators.
//
// Generators in this package do not collect any entropy themselves. They
// stretch whatever seed material they are given and must be fed from a real
// entropy source.
package digestrand

import (
	"errors"
	"fmt"
	"strings"

	"github.com/safing/portrand/crypto/hash"
)

// RNG is a deterministic random generator that accepts additional seed material at any time.
// Implementations are safe for concurrent use.
type RNG interface {
	// AddSeedMaterial mixes the given material into the generator state.
	AddSeedMaterial(seed []byte)
	// NextBytes fills p with generator output.
	NextBytes(p []byte)
	// StepSize returns the amount of bytes produced per internal generation step.
	StepSize() int
	// Wipe destroys the generator state as far as the implementation can
	// reach it. The generator must not be used afterwards.
	Wipe()
}

// Kinds of generators.
const (
	KindDigest  = "digest"
	KindFortuna = "fortuna"
)

// ErrUnknownKind is returned for unsupported generator kinds or ciphers.
var ErrUnknownKind = errors.New("unknown generator")

// Factory creates new, unseeded generators.
type Factory func() (RNG, error)

// NewFactory returns a factory for generators of the given kind.
// The hash algorithm is used by digest generators, the cipher by Fortuna generators.
func NewFactory(kind string, alg hash.Algorithm, cipherName string) (Factory, error) {
	switch strings.ToLower(kind) {
	case KindDigest, "":
		if !alg.Valid() {
			return nil, fmt.Errorf("%w: %d", hash.ErrUnknownAlgorithm, alg)
		}
		return func() (RNG, error) {
			return NewGenerator(alg), nil
		}, nil

	case KindFortuna:
		if _, err := cipherFactory(cipherName); err != nil {
			return nil, err
		}
		return func() (RNG, error) {
			return NewFortuna(cipherName)
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
