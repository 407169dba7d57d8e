// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the AGPL license that can be found in the LICENSE file.

package hash

import (
	"hash"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
)

// NewBlake2s256 returns a new unkeyed BLAKE2s-256 hash.
func NewBlake2s256() hash.Hash {
	h, _ := blake2s.New256(nil)
	return h
}

// NewBlake2b256 returns a new unkeyed BLAKE2b-256 hash.
func NewBlake2b256() hash.Hash {
	h, _ := blake2b.New256(nil)
	return h
}

// NewBlake2b384 returns a new unkeyed BLAKE2b-384 hash.
func NewBlake2b384() hash.Hash {
	h, _ := blake2b.New384(nil)
	return h
}

// NewBlake2b512 returns a new unkeyed BLAKE2b-512 hash.
func NewBlake2b512() hash.Hash {
	h, _ := blake2b.New512(nil)
	return h
}

// NewBlake3256 returns a new unkeyed BLAKE3 hash with 256 bit output.
func NewBlake3256() hash.Hash {
	return blake3.New()
}
