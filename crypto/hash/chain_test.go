package hash

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	t.Parallel()

	chain, err := NewChain(SHA2_256, SHA3_256, BLAKE2B_256, BLAKE3_256)
	require.NoError(t, err)
	assert.Equal(t, 32, chain.Width())
	assert.Equal(t, 4, chain.Len())
	assert.Equal(t, "SHA2-256,SHA3-256,BLAKE2b-256,BLAKE3-256", chain.String())

	sums := chain.Sums(testFox)
	require.Len(t, sums, 4)
	for i, alg := range chain.Algorithms() {
		assert.Len(t, sums[i], 32)
		assert.True(t, bytes.Equal(Sum(testFox, alg), sums[i]), "digest %d does not match %s", i, alg)
	}

	parsed, err := ParseChain("sha2-256, sha3-256,BLAKE2b-256, BLAKE3-256")
	require.NoError(t, err)
	assert.Equal(t, chain.Algorithms(), parsed.Algorithms())
}

func TestChainErrors(t *testing.T) {
	t.Parallel()

	_, err := NewChain()
	assert.ErrorIs(t, err, ErrEmptyChain)

	_, err = NewChain(SHA2_256, SHA2_512)
	assert.ErrorIs(t, err, ErrWidthMismatch)

	_, err = NewChain(SHA2_256, Algorithm(200))
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	_, err = ParseChain("SHA2-256,Whirlpool")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	_, err = ParseChain(" , ")
	assert.ErrorIs(t, err, ErrEmptyChain)
}
