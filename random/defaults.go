package random

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/safing/portrand/crypto/hash"
	"github.com/safing/portrand/harvest"
	"github.com/safing/portrand/log"
	"github.com/safing/portrand/pool"
)

var (
	defaultsLock sync.Mutex
	defaultSlow  *SlowEngine
	defaultFast  *FastEngine

	// Reader reads from the shared fast engine.
	Reader io.Reader = reader{}
)

type reader struct{}

func (reader) Read(p []byte) (int, error) {
	return Read(p)
}

// DefaultSlow returns the shared slow engine, creating it on first use.
func DefaultSlow() (*SlowEngine, error) {
	defaultsLock.Lock()
	defer defaultsLock.Unlock()

	return getDefaultSlow()
}

func getDefaultSlow() (*SlowEngine, error) {
	if defaultSlow != nil {
		return defaultSlow, nil
	}

	engine, err := newDefaultSlow()
	if err != nil {
		return nil, err
	}
	defaultSlow = engine
	return defaultSlow, nil
}

// DefaultFast returns the shared fast engine, creating it and the shared slow engine on first use.
func DefaultFast() (*FastEngine, error) {
	defaultsLock.Lock()
	defer defaultsLock.Unlock()

	if defaultFast != nil {
		return defaultFast, nil
	}

	opts, err := fastOptions()
	if err != nil {
		return nil, err
	}
	slow, err := getDefaultSlow()
	if err != nil {
		return nil, err
	}
	engine, err := NewFastEngine(slow, opts)
	if err != nil {
		return nil, err
	}
	defaultFast = engine
	return defaultFast, nil
}

// newDefaultSlow combines the system generator, the race harvester, the
// persistent pool and, if enabled, the tick harvester.
func newDefaultSlow() (engine *SlowEngine, err error) {
	poolOpts, err := PoolOptions()
	if err != nil {
		return nil, err
	}
	harvesterPoolSize := int(harvesterPoolSizeOption())

	var hashers []*Hasher
	defer func() {
		if err != nil {
			for _, h := range hashers {
				_ = h.Close()
			}
		}
	}()

	h, err := NewHasherWithAlgs("system", SystemSource{}, hash.SHA2_256)
	if err != nil {
		return nil, err
	}
	hashers = append(hashers, h)

	h, err = NewHasherWithAlgs("race", harvest.NewRaceHarvester(harvesterPoolSize), hash.SHA2_256, hash.SHA3_256)
	if err != nil {
		return nil, err
	}
	hashers = append(hashers, h)

	if slowTickSourceOption() {
		h, err = NewHasherWithAlgs("tick", harvest.NewTickHarvester(harvesterPoolSize), hash.BLAKE2S_256)
		if err != nil {
			return nil, err
		}
		hashers = append(hashers, h)
	}

	engine, err = NewSlowEngine(hashers...)
	if err != nil {
		return nil, err
	}

	poolChain, err := hash.NewChain(hash.SHA2_256)
	if err != nil {
		return nil, err
	}
	// The pool is optional.
	if err := engine.BindPool(poolOpts, poolChain); err != nil {
		log.Warningf("random: persistent pool is not used: %s", err)
	}

	log.Debugf("random: created slow engine with sources %v", engine.Hashers())
	return engine, nil
}

// CloseDefaults closes the shared engines and harvesters. They are created
// again on next use.
func CloseDefaults() error {
	defaultsLock.Lock()
	defer defaultsLock.Unlock()

	var result *multierror.Error
	if defaultFast != nil {
		if err := defaultFast.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		defaultFast = nil
	}
	if defaultSlow != nil {
		if err := defaultSlow.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		defaultSlow = nil
	}
	if err := harvest.CloseShared(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Read fills b from the shared fast engine.
func Read(b []byte) (n int, err error) {
	engine, err := DefaultFast()
	if err != nil {
		return 0, err
	}
	return engine.Read(b)
}

// Bytes returns n random bytes from the shared fast engine.
func Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Number returns a uniformly distributed random number from 0 to (incl.) max.
func Number(max uint64) (uint64, error) {
	buf := make([]byte, 8)
	defer clear(buf)

	if max == math.MaxUint64 {
		if _, err := Read(buf); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(buf), nil
	}

	n := max + 1
	// Values below the threshold would favor small results.
	threshold := -n % n
	for {
		if _, err := Read(buf); err != nil {
			return 0, err
		}
		candidate := binary.LittleEndian.Uint64(buf)
		if candidate >= threshold {
			return candidate % n, nil
		}
	}
}

// SupplySeed mixes externally collected seed material, such as user input,
// into the persistent pool. All engines bound to the pool are notified.
// The seed is wiped afterwards.
func SupplySeed(seed []byte) error {
	defer clear(seed)

	opts, err := PoolOptions()
	if err != nil {
		return err
	}
	if err := pool.Seed(seed, opts); err != nil {
		if errors.Is(err, pool.ErrSeedTooShort) {
			return err
		}
		return fmt.Errorf("random: failed to supply seed: %w", err)
	}
	return nil
}
