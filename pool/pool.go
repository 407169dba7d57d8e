// Package pool manages the persistent entropy pool.
//
// The pool is a fixed size buffer stored on disk that accumulates seed
// material across process runs. Every open mixes in the optional seed,
// derives a generator for the opening instance and writes back a rehashed
// pool, so that consecutive opens never serve the same output.
package pool

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/tevino/abool"

	"github.com/safing/portrand/crypto/hash"
	"github.com/safing/portrand/dataroot"
	"github.com/safing/portrand/digestrand"
	"github.com/safing/portrand/log"
	"github.com/safing/portrand/utils/renameio"
)

const (
	// MinSeedSize is the minimum accepted seed size in bytes.
	MinSeedSize = 8

	// FileName is the name of the pool file within the data root.
	FileName = "entropy.pool"

	// DefaultMaxTries is the default amount of attempts to lock the pool file.
	DefaultMaxTries = 10000
	// DefaultRetryDelay is the default delay between attempts to lock the pool file.
	DefaultRetryDelay = time.Millisecond

	lockSuffix = ".lock"
	keySuffix  = ".key"
)

// Options configure access to the pool file.
type Options struct {
	// Path is the pool file. Defaults to DefaultPath().
	Path string
	// Protector protects the pool file at rest. Defaults to a KeyFileProtector next to the pool file.
	Protector Protector
	// MixingAlg is used to mix seeds into the pool. Defaults to SHA2-256.
	MixingAlg hash.Algorithm
	// GeneratorAlg is used by the generator of pool instances. Defaults to SHA2-512.
	GeneratorAlg hash.Algorithm
	// Registry receives pool events. Defaults to DefaultRegistry.
	Registry *Registry

	MaxTries   int
	RetryDelay time.Duration
}

// DefaultPath returns the pool file location within the data root.
func DefaultPath() (string, error) {
	root, err := dataroot.Ensure()
	if err != nil {
		return "", fmt.Errorf("pool: failed to get data root: %w", err)
	}
	return filepath.Join(root.Path, FileName), nil
}

func (opts *Options) applyDefaults() error {
	if opts.Path == "" {
		path, err := DefaultPath()
		if err != nil {
			return err
		}
		opts.Path = path
	} else {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o0700); err != nil {
			return fmt.Errorf("pool: failed to create pool directory: %w", err)
		}
	}
	if opts.Protector == nil {
		opts.Protector = NewKeyFileProtector(opts.Path + keySuffix)
	}
	if opts.MixingAlg == 0 {
		opts.MixingAlg = hash.SHA2_256
	}
	if opts.GeneratorAlg == 0 {
		opts.GeneratorAlg = hash.SHA2_512
	}
	if !opts.MixingAlg.Valid() {
		return fmt.Errorf("pool: mixing algorithm: %w", hash.ErrUnknownAlgorithm)
	}
	if !opts.GeneratorAlg.Valid() {
		return fmt.Errorf("pool: generator algorithm: %w", hash.ErrUnknownAlgorithm)
	}
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry
	}
	if opts.MaxTries <= 0 {
		opts.MaxTries = DefaultMaxTries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return nil
}

// Pool is an entropy source backed by the persistent pool.
// It is safe for concurrent use.
type Pool struct {
	lock sync.Mutex
	rng  *digestrand.Generator

	registry       *Registry
	subscriptionID uuid.UUID
	closed         *abool.AtomicBool
}

// Open opens the pool, mixes in the seed, if given, and returns a new pool
// instance. A nil seed requires the pool to have been seeded before. The
// seed is not modified.
func Open(seed []byte, opts Options) (*Pool, error) {
	p, err := open(seed, opts)
	countOpen(err)
	return p, err
}

// Seed mixes the seed into the pool.
func Seed(seed []byte, opts Options) error {
	if seed == nil {
		return ErrSeedTooShort
	}
	p, err := Open(seed, opts)
	if err != nil {
		return err
	}
	return p.Close()
}

func open(seed []byte, opts Options) (*Pool, error) {
	if seed != nil && len(seed) < MinSeedSize {
		return nil, ErrSeedTooShort
	}
	if err := opts.applyDefaults(); err != nil {
		return nil, err
	}

	rng, record, err := update(seed, &opts)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		rng:      rng,
		registry: opts.Registry,
		closed:   abool.New(),
	}
	p.subscriptionID = opts.Registry.Subscribe(p.handleEvent)

	if seed != nil {
		digest := hash.Sum(record, hash.SHA2_256)
		clear(record)
		log.Debugf("pool: mixed %d bytes of seed material into %s", len(seed), opts.Path)
		opts.Registry.PoolChanged(digest)
	} else {
		clear(record)
	}

	return p, nil
}

// update runs one locked read, mix, write cycle on the pool file and returns
// the generator for the new instance and the written record.
func update(seed []byte, opts *Options) (*digestrand.Generator, []byte, error) {
	fl, err := acquireLock(opts.Path+lockSuffix, opts.MaxTries, opts.RetryDelay)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := fl.release(); err != nil {
			log.Warningf("pool: failed to release lock: %s", err)
		}
	}()

	pool := make([]byte, PoolSize)
	defer clear(pool)
	var cursor int

	data, err := os.ReadFile(opts.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if seed == nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrUnseeded)
		}
	case err != nil:
		return nil, nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	case len(data) == 0:
		if seed == nil {
			return nil, nil, ErrUnseeded
		}
	default:
		record, err := opts.Protector.Unprotect(data)
		clear(data)
		if err != nil {
			if errors.Is(err, ErrCorrupted) {
				return nil, nil, err
			}
			return nil, nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
		}
		cursor, err = decodeRecord(record, pool)
		clear(record)
		if err != nil {
			return nil, nil, err
		}
	}

	if seed != nil {
		cursor = plantSeed(pool, cursor, seed, opts.MixingAlg)
	}

	rng := digestrand.NewSeededGenerator(opts.GeneratorAlg, pool)
	if seed != nil {
		rng.AddSeedMaterial(seed)
	}

	stir(pool, opts.MixingAlg)
	record := encodeRecord(cursor, pool)

	protected, err := opts.Protector.Protect(record)
	if err != nil {
		rng.Wipe()
		clear(record)
		return nil, nil, fmt.Errorf("pool: failed to protect pool: %w", err)
	}
	err = renameio.WriteFile(opts.Path, protected, 0o0600)
	clear(protected)
	if err != nil {
		rng.Wipe()
		clear(record)
		return nil, nil, fmt.Errorf("pool: failed to write pool: %w", err)
	}

	return rng, record, nil
}

func (p *Pool) handleEvent(event Event) {
	if event.Type != EventChanged || p.closed.IsSet() {
		return
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	if p.rng != nil {
		p.rng.AddSeedMaterial(event.Digest)
	}
}

// Read fills b with generator output. It never returns short.
func (p *Pool) Read(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.rng == nil {
		return 0, ErrClosed
	}
	p.rng.NextBytes(b)
	return len(b), nil
}

// GetNonZeroBytes fills b with non-zero generator output.
func (p *Pool) GetNonZeroBytes(b []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.rng == nil {
		return ErrClosed
	}

	buf := make([]byte, len(b))
	defer clear(buf)
	for pos := 0; pos < len(b); {
		p.rng.NextBytes(buf[:len(b)-pos])
		for _, c := range buf[:len(b)-pos] {
			if c != 0 {
				b[pos] = c
				pos++
			}
		}
	}
	return nil
}

// Close unsubscribes from pool events and wipes the generator.
func (p *Pool) Close() error {
	if !p.closed.SetToIf(false, true) {
		return nil
	}
	p.registry.Unsubscribe(p.subscriptionID)

	p.lock.Lock()
	defer p.lock.Unlock()

	p.rng.Wipe()
	p.rng = nil
	return nil
}
