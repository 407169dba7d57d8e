package random

import (
	"crypto/rand"
	"io"

	"github.com/safing/portrand/crypto/hash"
	"github.com/safing/portrand/digestrand"
)

// Source is an entropy source. Read must fill p completely or fail.
// Close releases all resources held by the source.
//
// Besides the sources in this package, *pool.Pool and *harvest.Harvester are sources.
type Source interface {
	io.Reader
	io.Closer
}

// SystemSource reads from the operating system's random generator.
type SystemSource struct{}

// Read fills p from crypto/rand.
func (SystemSource) Read(p []byte) (int, error) {
	return io.ReadFull(rand.Reader, p)
}

// Close does nothing.
func (SystemSource) Close() error {
	return nil
}

// UserStringSource stretches a user supplied string. It does not add any
// entropy beyond what is in the string.
type UserStringSource struct {
	rng *digestrand.Generator
}

// NewUserStringSource returns a source seeded with the given string, using SHA2-256.
func NewUserStringSource(s string) *UserStringSource {
	return NewUserBytesSource([]byte(s), hash.SHA2_256)
}

// NewUserBytesSource returns a source seeded with the given bytes, using the given hash algorithm.
func NewUserBytesSource(b []byte, alg hash.Algorithm) *UserStringSource {
	return &UserStringSource{
		rng: digestrand.NewSeededGenerator(alg, b),
	}
}

// Read fills p with generator output.
func (us *UserStringSource) Read(p []byte) (int, error) {
	us.rng.NextBytes(p)
	return len(p), nil
}

// Close wipes the generator.
func (us *UserStringSource) Close() error {
	us.rng.Wipe()
	return nil
}
