package digestrand

import (
	"encoding/binary"
	"hash"
	"sync"

	algs "github.com/safing/portrand/crypto/hash"
)

// cycleCount is the amount of state generations after which the seed is cycled.
const cycleCount = 10

// Generator is a hash based deterministic random generator.
//
// State is derived as H(stateCounter ‖ state ‖ seed), seed material is
// absorbed as H(material ‖ seed) and the seed itself is cycled as
// H(seed ‖ seedCounter) every ten state generations. Counters are encoded
// as 8 byte little endian integers.
type Generator struct {
	lock sync.Mutex

	alg    algs.Algorithm
	digest hash.Hash

	seed         []byte
	seedCounter  uint64
	state        []byte
	stateCounter uint64
}

// NewGenerator returns a new, unseeded generator using the given hash algorithm.
func NewGenerator(alg algs.Algorithm) *Generator {
	digest := alg.New()
	if digest == nil {
		panic("digestrand: unknown hash algorithm")
	}

	return &Generator{
		alg:          alg,
		digest:       digest,
		seed:         make([]byte, digest.Size()),
		seedCounter:  1,
		state:        make([]byte, digest.Size()),
		stateCounter: 1,
	}
}

// NewSeededGenerator returns a new generator seeded with the given material.
func NewSeededGenerator(alg algs.Algorithm, seed []byte) *Generator {
	g := NewGenerator(alg)
	g.AddSeedMaterial(seed)
	return g
}

// Algorithm returns the hash algorithm of the generator.
func (g *Generator) Algorithm() algs.Algorithm {
	return g.alg
}

// StepSize returns the digest size.
func (g *Generator) StepSize() int {
	return len(g.state)
}

// AddSeedMaterial mixes the given material into the seed.
func (g *Generator) AddSeedMaterial(seed []byte) {
	g.lock.Lock()
	defer g.lock.Unlock()

	g.digest.Reset()
	_, _ = g.digest.Write(seed)
	_, _ = g.digest.Write(g.seed)
	g.seed = g.digest.Sum(g.seed[:0])
}

// NextBytes fills p with generator output.
func (g *Generator) NextBytes(p []byte) {
	g.lock.Lock()
	defer g.lock.Unlock()

	g.generateState()
	stateOff := 0
	for i := range p {
		if stateOff == len(g.state) {
			g.generateState()
			stateOff = 0
		}
		p[i] = g.state[stateOff]
		stateOff++
	}
}

// Wipe zeroes the generator state.
func (g *Generator) Wipe() {
	g.lock.Lock()
	defer g.lock.Unlock()

	clear(g.seed)
	clear(g.state)
	g.digest.Reset()
	g.seedCounter = 1
	g.stateCounter = 1
}

func (g *Generator) cycleSeed() {
	g.digest.Reset()
	_, _ = g.digest.Write(g.seed)
	g.addCounter(g.seedCounter)
	g.seedCounter++
	g.seed = g.digest.Sum(g.seed[:0])
}

func (g *Generator) generateState() {
	g.digest.Reset()
	g.addCounter(g.stateCounter)
	g.stateCounter++
	_, _ = g.digest.Write(g.state)
	_, _ = g.digest.Write(g.seed)
	g.state = g.digest.Sum(g.state[:0])

	if g.stateCounter%cycleCount == 0 {
		g.cycleSeed()
	}
}

func (g *Generator) addCounter(counter uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], counter)
	_, _ = g.digest.Write(buf[:])
}
