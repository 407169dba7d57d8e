// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the AGPL license that can be found in the LICENSE file.

package hash

import (
	"encoding/hex"
	"io"
)

// Sum returns the digest of data.
func Sum(data []byte, alg Algorithm) []byte {
	hasher := alg.New()
	if hasher == nil {
		return nil
	}
	_, _ = hasher.Write(data)
	return hasher.Sum(nil)
}

// SumString returns the digest of the given string.
func SumString(data string, alg Algorithm) []byte {
	hasher := alg.New()
	if hasher == nil {
		return nil
	}
	_, _ = io.WriteString(hasher, data)
	return hasher.Sum(nil)
}

// SumReader returns the digest of everything read from reader.
func SumReader(reader io.Reader, alg Algorithm) ([]byte, error) {
	hasher := alg.New()
	if hasher == nil {
		return nil, ErrUnknownAlgorithm
	}
	_, err := io.Copy(hasher, reader)
	if err != nil {
		return nil, err
	}
	return hasher.Sum(nil), nil
}

// SumHex returns the hex encoded digest of data.
func SumHex(data []byte, alg Algorithm) string {
	return hex.EncodeToString(Sum(data, alg))
}

// RecommendedAlg returns the recommended algorithm for the given security strength.
func RecommendedAlg(strengthInBits uint16) Algorithm {
	strengthInBytes := uint8(strengthInBits / 8)
	if strengthInBits%8 != 0 {
		strengthInBytes++
	}
	if strengthInBytes == 0 {
		strengthInBytes = uint8(0xFF)
	}
	chosenAlg := orderedByRecommendation[0]
	for _, alg := range orderedByRecommendation {
		strength := alg.SecurityStrength()
		if strength < strengthInBytes {
			break
		}
		chosenAlg = alg
		if strength == strengthInBytes {
			break
		}
	}
	return chosenAlg
}
