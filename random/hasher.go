package random

import (
	"bytes"
	"fmt"
	"io"

	"github.com/safing/portrand/crypto/hash"
)

// Hasher draws raw entropy from a source and whitens it with a digest chain.
// A hasher owns its source.
type Hasher struct {
	name   string
	source Source
	chain  *hash.Chain
}

// drawing holds all intermediate values of a single draw.
type drawing struct {
	raw     []byte
	digests [][]byte
	// output is digests[0] for single digest chains.
	output []byte
}

// NewHasher returns a new hasher.
func NewHasher(name string, source Source, chain *hash.Chain) (*Hasher, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if chain == nil {
		return nil, hash.ErrEmptyChain
	}
	return &Hasher{
		name:   name,
		source: source,
		chain:  chain,
	}, nil
}

// NewHasherWithAlgs returns a new hasher with a chain of the given algorithms.
func NewHasherWithAlgs(name string, source Source, algs ...hash.Algorithm) (*Hasher, error) {
	chain, err := hash.NewChain(algs...)
	if err != nil {
		return nil, err
	}
	return NewHasher(name, source, chain)
}

// Name returns the name of the hasher.
func (h *Hasher) Name() string {
	return h.name
}

// Width returns the output size of the hasher.
func (h *Hasher) Width() int {
	return h.chain.Width()
}

// Chain returns the digest chain of the hasher.
func (h *Hasher) Chain() *hash.Chain {
	return h.chain
}

func (h *Hasher) String() string {
	return fmt.Sprintf("%s[%s]", h.name, h.chain)
}

// Draw reads Width() bytes from the source and returns the combined digests.
func (h *Hasher) Draw() ([]byte, error) {
	d, err := h.draw()
	if err != nil {
		return nil, err
	}
	defer d.wipe()

	return bytes.Clone(d.output), nil
}

func (h *Hasher) draw() (*drawing, error) {
	raw := make([]byte, h.chain.Width())
	if _, err := io.ReadFull(h.source, raw); err != nil {
		clear(raw)
		return nil, fmt.Errorf("random: hasher %s failed to read: %w", h.name, err)
	}

	d := &drawing{
		raw:     raw,
		digests: h.chain.Sums(raw),
	}
	if len(d.digests) == 1 {
		d.output = d.digests[0]
	} else {
		d.output = make([]byte, len(raw))
		for _, digest := range d.digests {
			xorInto(d.output, digest)
		}
	}
	return d, nil
}

// values returns all values of the drawing that must be distinct.
func (d *drawing) values() [][]byte {
	values := make([][]byte, 0, len(d.digests)+2)
	values = append(values, d.raw)
	values = append(values, d.digests...)
	if len(d.digests) > 1 {
		values = append(values, d.output)
	}
	return values
}

func (d *drawing) wipe() {
	clear(d.raw)
	for _, digest := range d.digests {
		clear(digest)
	}
	clear(d.output)
}

// Close closes the source.
func (h *Hasher) Close() error {
	return h.source.Close()
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}
