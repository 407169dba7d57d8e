package pool

import (
	"bytes"

	"github.com/safing/portrand/container"
	"github.com/safing/portrand/crypto/hash"
)

// gatherPool returns a copy of n pool bytes starting at cursor, wrapping around at the end.
func gatherPool(pool []byte, cursor, n int) []byte {
	chunk := make([]byte, n)
	container.New(pool[cursor:], pool[:cursor]).WriteToSlice(chunk)
	return chunk
}

// plantSeed mixes the seed into the pool, chunk by chunk, starting at the
// cursor. Each chunk replaces the pool bytes with H(seed chunk) XOR H(pool
// chunk). Seed chunks identical to the pool bytes at the cursor are skipped
// without moving the cursor. Returns the new cursor.
func plantSeed(pool []byte, cursor int, seed []byte, alg hash.Algorithm) int {
	width := int(alg.Size())

	for seedPos := 0; seedPos < len(seed); {
		n := min(width, len(seed)-seedPos)
		seedChunk := seed[seedPos : seedPos+n]
		seedPos += n

		poolChunk := gatherPool(pool, cursor, n)
		if bytes.Equal(seedChunk, poolChunk) {
			clear(poolChunk)
			continue
		}

		seedHash := hash.Sum(seedChunk, alg)
		poolHash := hash.Sum(poolChunk, alg)
		for i := 0; i < n; i++ {
			pool[cursor] = seedHash[i] ^ poolHash[i]
			cursor++
			if cursor == len(pool) {
				cursor = 0
			}
		}

		clear(poolChunk)
		clear(seedHash)
		clear(poolHash)
	}

	return cursor
}

// stir replaces every block of the pool with its digest, truncated to the block size.
func stir(pool []byte, alg hash.Algorithm) {
	width := int(alg.Size())

	for pos := 0; pos < len(pool); pos += width {
		block := pool[pos:min(pos+width, len(pool))]
		sum := hash.Sum(block, alg)
		copy(block, sum)
		clear(sum)
	}
}
