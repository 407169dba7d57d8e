package pool

import "errors"

// Errors.
var (
	// ErrSeedTooShort is returned for seeds shorter than MinSeedSize.
	ErrSeedTooShort = errors.New("pool: seed too short")
	// ErrUnseeded is returned when opening a pool that was never seeded without providing a seed.
	ErrUnseeded = errors.New("pool: pool was never seeded")
	// ErrUnavailable is returned when the pool file does not exist or cannot be accessed.
	ErrUnavailable = errors.New("pool: pool file unavailable")
	// ErrCorrupted is returned when the pool file fails decryption or integrity checks.
	ErrCorrupted = errors.New("pool: pool file corrupted")
	// ErrLockTimeout is returned when exclusive access to the pool file could not be acquired.
	ErrLockTimeout = errors.New("pool: timed out waiting for pool file lock")
	// ErrClosed is returned when using a closed pool.
	ErrClosed = errors.New("pool: pool is closed")

	errLocked = errors.New("pool: lock is held")
)
