package random

import "errors"

// Errors.
var (
	// ErrNoHashers is returned when creating an engine with too few hashers.
	ErrNoHashers = errors.New("random: not enough hashers")
	// ErrNilSource is returned when a hasher or engine is given no source.
	ErrNilSource = errors.New("random: nil source")
	// ErrDuplicateDetected is returned when two values that must be distinct
	// are identical. This points to a broken entropy source.
	ErrDuplicateDetected = errors.New("random: duplicate entropy detected")
	// ErrClosed is returned when using a closed engine.
	ErrClosed = errors.New("random: engine is closed")
	// ErrInvalidThresholds is returned for reseed thresholds that are negative or where soft exceeds hard.
	ErrInvalidThresholds = errors.New("random: invalid reseed thresholds")
)
