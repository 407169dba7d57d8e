package pool

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

const (
	// PoolSize is the size of the persistent pool in bytes.
	PoolSize = 3072

	cursorSize = 4
	tagSize    = sha256.Size
	recordSize = cursorSize + PoolSize + tagSize
)

// integrityKey keys the record checksum. It detects accidental corruption
// and tampering by tools that do not know this package. It is not a secret.
var integrityKey = []byte{
	0x3d, 0x91, 0x0e, 0xc4, 0x57, 0xa2, 0x6b, 0xf8,
	0x14, 0xe0, 0x7c, 0x29, 0xb5, 0x43, 0xd6, 0x8a,
	0x62, 0x0f, 0x9e, 0x31, 0xcb, 0x75, 0x18, 0xa4,
	0xed, 0x50, 0x87, 0x3c, 0xf1, 0x26, 0x9b, 0x6e,
}

// encodeRecord serializes the pool as: cursor (int32, big endian) ‖ pool ‖ HMAC-SHA256(cursor ‖ pool).
func encodeRecord(cursor int, pool []byte) []byte {
	record := make([]byte, recordSize)
	binary.BigEndian.PutUint32(record[:cursorSize], uint32(int32(cursor)))
	copy(record[cursorSize:cursorSize+PoolSize], pool)

	mac := hmac.New(sha256.New, integrityKey)
	mac.Write(record[:cursorSize+PoolSize])
	mac.Sum(record[:cursorSize+PoolSize])

	return record
}

// decodeRecord verifies a record and copies the pool into pool.
func decodeRecord(record []byte, pool []byte) (cursor int, err error) {
	if len(record) != recordSize {
		return 0, fmt.Errorf("%w: record has %d bytes, expected %d", ErrCorrupted, len(record), recordSize)
	}

	mac := hmac.New(sha256.New, integrityKey)
	mac.Write(record[:cursorSize+PoolSize])
	if !hmac.Equal(mac.Sum(nil), record[cursorSize+PoolSize:]) {
		return 0, fmt.Errorf("%w: checksum mismatch", ErrCorrupted)
	}

	cursor = int(int32(binary.BigEndian.Uint32(record[:cursorSize])))
	if cursor < 0 || cursor >= PoolSize {
		return 0, fmt.Errorf("%w: cursor %d out of range", ErrCorrupted, cursor)
	}

	copy(pool, record[cursorSize:cursorSize+PoolSize])
	return cursor, nil
}
