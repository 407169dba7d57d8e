package random

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/portrand/config"
	"github.com/safing/portrand/pool"
)

func TestMain(m *testing.M) {
	// Keep the persistent pool out of the user config directory.
	dir, err := os.MkdirTemp("", "portrand-random-test")
	if err != nil {
		panic(err)
	}
	err = config.SetConfigOption(CfgPoolPath, filepath.Join(dir, pool.FileName))
	if err != nil {
		panic(err)
	}

	code := m.Run()

	_ = CloseDefaults()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestConfig(t *testing.T) {
	require.NoError(t, checkConfig())

	opts, err := fastOptions()
	require.NoError(t, err)
	assert.Equal(t, DefaultSoftSteps, opts.SoftSteps)
	assert.Equal(t, DefaultHardSteps, opts.HardSteps)

	require.NoError(t, config.SetConfigOption(CfgReseedSoftSteps, DefaultHardSteps+1))
	assert.ErrorIs(t, checkConfig(), ErrInvalidThresholds)
	require.NoError(t, config.SetConfigOption(CfgReseedSoftSteps, nil))

	require.NoError(t, config.SetConfigOption(CfgMixingHash, "MD5"))
	assert.Error(t, checkConfig())
	require.NoError(t, config.SetConfigOption(CfgMixingHash, nil))

	assert.Error(t, config.SetConfigOption(CfgFastGenerator, "mt19937"))
	require.NoError(t, config.SetConfigOption(CfgFastGenerator, "fortuna"))
	require.NoError(t, checkConfig())
	require.NoError(t, config.SetConfigOption(CfgFastGenerator, nil))

	require.NoError(t, checkConfig())
}

func TestSharedEngines(t *testing.T) {
	if testing.Short() {
		t.Skip("harvesting entropy takes a while")
	}
	t.Cleanup(func() {
		assert.NoError(t, CloseDefaults())
	})

	fast, err := DefaultFast()
	require.NoError(t, err)
	fast2, err := DefaultFast()
	require.NoError(t, err)
	assert.Same(t, fast, fast2)

	slow, err := DefaultSlow()
	require.NoError(t, err)
	assert.Subset(t, slow.Hashers(), []string{"system", "race"})

	b, err := Bytes(100)
	require.NoError(t, err)
	assert.Len(t, b, 100)

	n, err := Reader.Read(make([]byte, 10))
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	for _, max := range []uint64{0, 1, 2, 10, 255, 1 << 40, math.MaxUint64 - 1, math.MaxUint64} {
		for i := 0; i < 100; i++ {
			v, err := Number(max)
			require.NoError(t, err)
			assert.LessOrEqual(t, v, max)
		}
	}

	// All values of a small range show up.
	seen := make(map[uint64]bool)
	for i := 0; i < 1000; i++ {
		v, err := Number(3)
		require.NoError(t, err)
		seen[v] = true
	}
	assert.Len(t, seen, 4)
}

func TestSupplySeed(t *testing.T) {
	if testing.Short() {
		t.Skip("harvesting entropy takes a while")
	}
	t.Cleanup(func() {
		assert.NoError(t, CloseDefaults())
	})

	assert.ErrorIs(t, SupplySeed([]byte("short")), pool.ErrSeedTooShort)

	seed := []byte("entropy collected from the user")
	require.NoError(t, SupplySeed(seed))
	assert.Equal(t, make([]byte, len(seed)), seed, "seed must be wiped")
	assert.True(t, pool.DefaultRegistry.Available())

	opts, err := PoolOptions()
	require.NoError(t, err)
	_, err = os.Stat(opts.Path)
	require.NoError(t, err)

	// The shared slow engine now uses the pool.
	slow, err := DefaultSlow()
	require.NoError(t, err)
	assert.Contains(t, slow.Hashers(), "pool")

	out := bytes.Repeat([]byte{0}, 64)
	require.NoError(t, slow.GetNonZeroBytes(out))
	assert.NotContains(t, out, byte(0))
}
