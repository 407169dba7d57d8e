package hash

import (
	"errors"
	"fmt"
	"strings"
)

// Chain errors.
var (
	ErrEmptyChain    = errors.New("digest chain is empty")
	ErrWidthMismatch = errors.New("digest width mismatch")
)

// Chain is an ordered list of hash algorithms that all produce digests of the same width.
type Chain struct {
	algs  []Algorithm
	width int
}

// NewChain returns a new digest chain of the given algorithms.
func NewChain(algs ...Algorithm) (*Chain, error) {
	if len(algs) == 0 {
		return nil, ErrEmptyChain
	}

	width := 0
	for _, alg := range algs {
		if !alg.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, alg)
		}
		switch {
		case width == 0:
			width = int(alg.Size())
		case width != int(alg.Size()):
			return nil, fmt.Errorf("%w: %s produces %d bytes, chain uses %d", ErrWidthMismatch, alg, alg.Size(), width)
		}
	}

	c := &Chain{
		algs:  make([]Algorithm, len(algs)),
		width: width,
	}
	copy(c.algs, algs)
	return c, nil
}

// ParseChain returns a new digest chain from comma separated algorithm names.
func ParseChain(names string) (*Chain, error) {
	var algs []Algorithm
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		alg, err := ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}
		algs = append(algs, alg)
	}
	return NewChain(algs...)
}

// Width returns the digest width of the chain in bytes.
func (c *Chain) Width() int {
	return c.width
}

// Len returns the amount of algorithms in the chain.
func (c *Chain) Len() int {
	return len(c.algs)
}

// Algorithms returns a copy of the algorithms in the chain.
func (c *Chain) Algorithms() []Algorithm {
	algs := make([]Algorithm, len(c.algs))
	copy(algs, c.algs)
	return algs
}

// Sums returns one digest per algorithm of the chain, in chain order.
func (c *Chain) Sums(input []byte) [][]byte {
	sums := make([][]byte, 0, len(c.algs))
	for _, alg := range c.algs {
		sums = append(sums, Sum(input, alg))
	}
	return sums
}

func (c *Chain) String() string {
	names := make([]string, 0, len(c.algs))
	for _, alg := range c.algs {
		names = append(names, alg.Name())
	}
	return strings.Join(names, ",")
}
