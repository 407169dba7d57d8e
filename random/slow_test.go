package random

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/portrand/crypto/hash"
	"github.com/safing/portrand/pool"
)

func newTestHasher(t *testing.T, name string, source Source, algs ...hash.Algorithm) *Hasher {
	t.Helper()

	h, err := NewHasherWithAlgs(name, source, algs...)
	require.NoError(t, err)
	return h
}

// newTestEngine returns an engine with a system and a user string hasher.
func newTestEngine(t *testing.T) *SlowEngine {
	t.Helper()

	e, err := NewSlowEngine(
		newTestHasher(t, "system", SystemSource{}, hash.SHA2_256),
		newTestHasher(t, "user", NewUserStringSource(t.Name()), hash.BLAKE2S_256),
	)
	require.NoError(t, err)
	return e
}

func TestSlowEngineConstruction(t *testing.T) {
	t.Parallel()

	_, err := NewSlowEngine()
	assert.ErrorIs(t, err, ErrNoHashers)

	// A single hasher can never pass the distinctness check.
	_, err = NewSlowEngine(newTestHasher(t, "system", SystemSource{}, hash.SHA2_256))
	assert.ErrorIs(t, err, ErrNoHashers)
	_, err = NewSlowEngine(newTestHasher(t, "system", SystemSource{}, hash.SHA2_256, hash.SHA3_256))
	assert.ErrorIs(t, err, ErrNoHashers)

	_, err = NewSlowEngine(
		newTestHasher(t, "a", SystemSource{}, hash.SHA2_256),
		newTestHasher(t, "b", SystemSource{}, hash.SHA2_512),
	)
	assert.ErrorIs(t, err, hash.ErrWidthMismatch)

	_, err = NewSlowEngine(newTestHasher(t, "a", SystemSource{}, hash.SHA2_256), nil)
	assert.ErrorIs(t, err, ErrNilSource)
}

func TestSlowEngineOutput(t *testing.T) {
	t.Parallel()

	e, err := NewSlowEngine(
		newTestHasher(t, "a", NewUserStringSource("a"), hash.SHA2_256),
		newTestHasher(t, "b", NewUserStringSource("b"), hash.SHA2_256, hash.SHA3_256),
	)
	require.NoError(t, err)
	defer e.Close() //nolint:errcheck

	// Rebuild the expected output from the same sources.
	srcA := NewUserStringSource("a")
	srcB := NewUserStringSource("b")
	var expected []byte
	for len(expected) < 100 {
		rawA := make([]byte, 32)
		rawB := make([]byte, 32)
		_, _ = srcA.Read(rawA)
		_, _ = srcB.Read(rawB)

		block := hash.Sum(rawA, hash.SHA2_256)
		xorInto(block, hash.Sum(rawB, hash.SHA2_256))
		xorInto(block, hash.Sum(rawB, hash.SHA3_256))
		expected = append(expected, block...)
	}

	out := make([]byte, 100)
	n, err := e.Read(out)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, expected[:100], out)

	assert.NoError(t, e.GetBytes(nil))
	assert.NoError(t, e.GetBytes([]byte{}))
}

func TestSlowEngineFillsBuffer(t *testing.T) {
	t.Parallel()

	e, err := NewSlowEngine(
		newTestHasher(t, "system", SystemSource{}, hash.SHA2_256),
		newTestHasher(t, "user", NewUserStringSource("fill"), hash.BLAKE2S_256, hash.BLAKE3_256),
	)
	require.NoError(t, err)
	defer e.Close() //nolint:errcheck

	for _, size := range []int{1, 31, 32, 33, 64, 1000, 4096} {
		out := make([]byte, size)
		require.NoError(t, e.GetBytes(out))
		// The chance for 8 trailing zero bytes is negligible.
		if size >= 8 {
			assert.NotEqual(t, make([]byte, 8), out[size-8:], "size %d", size)
		}
	}

	for i := 0; i < 20; i++ {
		for _, size := range []int{1, 10, 100, 4096} {
			out := make([]byte, size)
			require.NoError(t, e.GetNonZeroBytes(out))
			assert.NotContains(t, out, byte(0))
		}
	}
}

func TestSlowEngineDuplicates(t *testing.T) {
	t.Parallel()

	// Two identical sources with identical chains.
	e, err := NewSlowEngine(
		newTestHasher(t, "a", NewUserStringSource("rigged"), hash.SHA2_256),
		newTestHasher(t, "b", NewUserStringSource("rigged"), hash.SHA2_256),
	)
	require.NoError(t, err)
	defer e.Close() //nolint:errcheck

	before := duplicates.Get()
	out := bytes.Repeat([]byte{0xFF}, 100)
	_, err = e.Read(out)
	assert.ErrorIs(t, err, ErrDuplicateDetected)
	assert.Equal(t, make([]byte, 100), out, "output must be wiped")
	assert.Greater(t, duplicates.Get(), before)

	out = bytes.Repeat([]byte{0xFF}, 100)
	assert.ErrorIs(t, e.GetNonZeroBytes(out), ErrDuplicateDetected)
	assert.Equal(t, make([]byte, 100), out, "output must be wiped")
}

func TestSlowEngineSourceFailure(t *testing.T) {
	t.Parallel()

	e, err := NewSlowEngine(
		newTestHasher(t, "system", SystemSource{}, hash.SHA2_256),
		newTestHasher(t, "broken", failingSource{}, hash.SHA2_256),
	)
	require.NoError(t, err)
	defer e.Close() //nolint:errcheck

	out := bytes.Repeat([]byte{0xFF}, 64)
	assert.ErrorIs(t, e.GetBytes(out), errTestSource)
	assert.Equal(t, make([]byte, 64), out)
}

func TestSlowEngineAddHasher(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	assert.ErrorIs(t, e.AddHasher(nil), ErrNilSource)
	assert.ErrorIs(t, e.AddHasher(newTestHasher(t, "wide", SystemSource{}, hash.SHA2_512)), hash.ErrWidthMismatch)

	cs := &countingSource{Reader: NewUserStringSource("added")}
	require.NoError(t, e.AddHasher(newTestHasher(t, "added", cs, hash.SHA3_256)))
	assert.Equal(t, []string{"system", "user", "added"}, e.Hashers())

	out := make([]byte, 64)
	require.NoError(t, e.GetBytes(out))
	assert.EqualValues(t, 2, cs.reads.Load())

	require.NoError(t, e.Close())
	assert.EqualValues(t, 1, cs.closes.Load())
	assert.ErrorIs(t, e.AddHasher(newTestHasher(t, "late", SystemSource{}, hash.SHA2_256)), ErrClosed)
}

func TestSlowEngineClose(t *testing.T) {
	t.Parallel()

	a := &countingSource{Reader: NewUserStringSource("a"), err: errTestSource}
	b := &countingSource{Reader: NewUserStringSource("b"), err: errTestSource}
	c := &countingSource{Reader: NewUserStringSource("c")}
	e, err := NewSlowEngine(
		newTestHasher(t, "a", a, hash.SHA2_256),
		newTestHasher(t, "b", b, hash.SHA2_256),
		newTestHasher(t, "c", c, hash.SHA2_256),
	)
	require.NoError(t, err)

	err = e.Close()
	assert.ErrorIs(t, err, errTestSource)
	assert.Contains(t, err.Error(), "hasher a")
	assert.Contains(t, err.Error(), "hasher b")
	assert.EqualValues(t, 1, c.closes.Load())

	assert.NoError(t, e.Close())
	assert.EqualValues(t, 1, c.closes.Load())

	_, err = e.Read(make([]byte, 10))
	assert.ErrorIs(t, err, ErrClosed)
}

func testPoolOptions(t *testing.T) pool.Options {
	t.Helper()

	return pool.Options{
		Path:      filepath.Join(t.TempDir(), pool.FileName),
		Protector: pool.NopProtector{},
		Registry:  pool.NewRegistry(),
	}
}

func TestSlowEngineBindPool(t *testing.T) {
	t.Parallel()

	chain, err := hash.NewChain(hash.SHA2_256)
	require.NoError(t, err)
	opts := testPoolOptions(t)

	e := newTestEngine(t)
	defer e.Close() //nolint:errcheck

	wide, err := hash.NewChain(hash.SHA2_512)
	require.NoError(t, err)
	assert.ErrorIs(t, e.BindPool(opts, wide), hash.ErrWidthMismatch)

	// Unseeded: the engine waits for the pool.
	require.NoError(t, e.BindPool(opts, chain))
	assert.Equal(t, []string{"system", "user"}, e.Hashers())
	assert.Equal(t, 1, opts.Registry.Subscribers())

	require.NoError(t, pool.Seed([]byte("some seed material for the pool"), opts))
	assert.Eventually(t, func() bool {
		return len(e.Hashers()) == 3
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"system", "user", "pool"}, e.Hashers())

	// The pool instance stays subscribed for change events.
	assert.Eventually(t, func() bool {
		return opts.Registry.Subscribers() == 1
	}, 5*time.Second, 5*time.Millisecond)

	out := make([]byte, 64)
	require.NoError(t, e.GetBytes(out))

	// Binding twice is a no-op.
	require.NoError(t, e.BindPool(opts, chain))
	assert.Len(t, e.Hashers(), 3)

	require.NoError(t, e.Close())
	assert.Equal(t, 0, opts.Registry.Subscribers())
}

func TestSlowEngineBindSeededPool(t *testing.T) {
	t.Parallel()

	chain, err := hash.NewChain(hash.SHA2_256)
	require.NoError(t, err)
	opts := testPoolOptions(t)
	require.NoError(t, pool.Seed([]byte("some seed material for the pool"), opts))

	e := newTestEngine(t)
	defer e.Close() //nolint:errcheck

	require.NoError(t, e.BindPool(opts, chain))
	assert.Equal(t, []string{"system", "user", "pool"}, e.Hashers())

	// Corrupted pools are reported.
	other := testPoolOptions(t)
	require.NoError(t, os.WriteFile(other.Path, []byte("garbage"), 0o0600))
	e2 := newTestEngine(t)
	defer e2.Close() //nolint:errcheck
	assert.ErrorIs(t, e2.BindPool(other, chain), pool.ErrCorrupted)
}
