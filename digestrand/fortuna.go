package digestrand

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"
	"sync"

	"github.com/aead/serpent"
	"github.com/seehuhn/fortuna"
)

// fortunaStepSize is the output block size of the Fortuna generator.
const fortunaStepSize = 16

// fortunaMaxRequest limits the size of a single request to the Fortuna generator.
const fortunaMaxRequest = 1 << 16

// Fortuna wraps the Fortuna generator (without its entropy accumulator) as an RNG.
type Fortuna struct {
	lock sync.Mutex
	gen  *fortuna.Generator
}

func cipherFactory(name string) (func([]byte) (cipher.Block, error), error) {
	switch strings.ToLower(name) {
	case "aes", "":
		return aes.NewCipher, nil
	case "serpent":
		return serpent.NewCipher, nil
	default:
		return nil, fmt.Errorf("%w: unsupported cipher %q", ErrUnknownKind, name)
	}
}

// NewFortuna returns a new, unseeded Fortuna generator using the given block cipher ("aes" or "serpent").
func NewFortuna(cipherName string) (*Fortuna, error) {
	newCipher, err := cipherFactory(cipherName)
	if err != nil {
		return nil, err
	}

	return &Fortuna{
		gen: fortuna.NewGenerator(newCipher),
	}, nil
}

// StepSize returns the cipher block size.
func (f *Fortuna) StepSize() int {
	return fortunaStepSize
}

// AddSeedMaterial reseeds the generator with the given material.
func (f *Fortuna) AddSeedMaterial(seed []byte) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.checkWiped()
	f.gen.Reseed(seed)
}

// NextBytes fills p with generator output.
func (f *Fortuna) NextBytes(p []byte) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.checkWiped()
	for len(p) > 0 {
		n := min(len(p), fortunaMaxRequest)
		data := f.gen.PseudoRandomData(uint(n))
		copy(p, data)
		clear(data)
		p = p[n:]
	}
}

// Wipe replaces the key with a one-way hash of the old key and drops the
// generator. The fortuna package does not expose its key, so the key memory
// itself is not zeroed, only left to the garbage collector. Using the
// generator afterwards panics.
func (f *Fortuna) Wipe() {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.gen != nil {
		f.gen.Reseed(make([]byte, 32))
		f.gen = nil
	}
}

func (f *Fortuna) checkWiped() {
	if f.gen == nil {
		panic("digestrand: use of wiped fortuna generator")
	}
}
