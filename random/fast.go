package random

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/tevino/abool"

	"github.com/safing/portrand/crypto/hash"
	"github.com/safing/portrand/digestrand"
	"github.com/safing/portrand/pool"
)

// Default reseed thresholds, in generation steps.
const (
	DefaultSoftSteps = 64 * 1024
	DefaultHardSteps = 1024 * 1024
)

// FastOptions configure a FastEngine.
type FastOptions struct {
	// Factory creates the internal generators. Defaults to a SHA2-256 digest generator.
	Factory digestrand.Factory
	// SoftSteps is the usage after which a background reseed is started.
	SoftSteps int
	// HardSteps is the usage after which reseeding blocks the caller.
	HardSteps int
	// SeedSize is the amount of bytes drawn from the seeder per reseed. Defaults to the generator step size.
	SeedSize int
	// Registry, if set, triggers a background reseed whenever the persistent pool changes.
	Registry *pool.Registry
	// CloseSeeder closes the seeder when the engine is closed, if it is an io.Closer.
	CloseSeeder bool
}

// FastEngine stretches seed material from a slow seeder with a
// deterministic generator. Usage is counted in generation steps of the
// generator. Once usage passes the soft threshold a reseed is done in the
// background; past the hard threshold, callers wait for the reseed.
//
// Every reseed replaces the generator with a new one, seeded with fresh
// seeder output and one step of output of the previous generator.
type FastEngine struct {
	lock     sync.Mutex
	rng      digestrand.RNG
	factory  digestrand.Factory
	stepSize int
	seedSize int
	usage    int
	soft     int
	hard     int

	seeder      io.Reader
	closeSeeder bool

	pending      *abool.AtomicBool
	dispatchLock sync.Mutex
	reseeding    sync.WaitGroup
	closed       *abool.AtomicBool

	registry       *pool.Registry
	subscriptionID uuid.UUID
}

// NewFastEngine returns a new engine seeded from seeder. The first seed is drawn before returning.
func NewFastEngine(seeder io.Reader, opts FastOptions) (*FastEngine, error) {
	if seeder == nil {
		return nil, ErrNilSource
	}
	if opts.Factory == nil {
		opts.Factory = func() (digestrand.RNG, error) {
			return digestrand.NewGenerator(hash.SHA2_256), nil
		}
	}
	if opts.SoftSteps == 0 {
		opts.SoftSteps = DefaultSoftSteps
	}
	if opts.HardSteps == 0 {
		opts.HardSteps = DefaultHardSteps
	}
	if opts.SoftSteps < 0 || opts.HardSteps < 0 || opts.SoftSteps > opts.HardSteps {
		return nil, fmt.Errorf("%w: soft=%d hard=%d", ErrInvalidThresholds, opts.SoftSteps, opts.HardSteps)
	}

	probe, err := opts.Factory()
	if err != nil {
		return nil, err
	}
	stepSize := probe.StepSize()
	probe.Wipe()
	if opts.SeedSize <= 0 {
		opts.SeedSize = stepSize
	}

	e := &FastEngine{
		factory:     opts.Factory,
		stepSize:    stepSize,
		seedSize:    opts.SeedSize,
		usage:       opts.HardSteps,
		soft:        opts.SoftSteps,
		hard:        opts.HardSteps,
		seeder:      seeder,
		closeSeeder: opts.CloseSeeder,
		pending:     abool.New(),
		closed:      abool.New(),
	}

	e.lock.Lock()
	err = e.reseed()
	e.lock.Unlock()
	if err != nil {
		return nil, err
	}

	if opts.Registry != nil {
		e.registry = opts.Registry
		e.subscriptionID = opts.Registry.Subscribe(func(event pool.Event) {
			if event.Type == pool.EventChanged {
				e.RequestReseed()
			}
		})
	}

	return e, nil
}

// Usage returns the generation steps used since the last reseed.
func (e *FastEngine) Usage() int {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.usage
}

// StepSize returns the amount of bytes produced per generation step.
func (e *FastEngine) StepSize() int {
	return e.stepSize
}

// Read fills p. It implements io.Reader.
func (e *FastEngine) Read(p []byte) (int, error) {
	if err := e.GetBytes(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// GetBytes fills p. On error, p is wiped.
func (e *FastEngine) GetBytes(p []byte) error {
	if e.closed.IsSet() {
		return ErrClosed
	}
	if len(p) == 0 {
		return nil
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if e.rng == nil {
		return ErrClosed
	}

	steps := 1 + len(p)/e.stepSize
	switch {
	case e.usage+steps > e.hard:
		if err := e.reseed(); err != nil {
			clear(p)
			return err
		}
		syncReseeds.Inc()
	case e.usage+steps > e.soft:
		e.RequestReseed()
	}

	e.usage += steps
	e.rng.NextBytes(p)
	fastBytes.Add(len(p))
	return nil
}

// GetNonZeroBytes fills p with non-zero bytes. On error, p is wiped.
func (e *FastEngine) GetNonZeroBytes(p []byte) error {
	return fillNonZero(p, e.GetBytes)
}

// RequestReseed starts a background reseed, unless one is already pending. It does not block.
func (e *FastEngine) RequestReseed() {
	if !e.pending.SetToIf(false, true) {
		return
	}

	e.dispatchLock.Lock()
	defer e.dispatchLock.Unlock()

	if e.closed.IsSet() {
		e.pending.UnSet()
		return
	}

	e.reseeding.Add(1)
	module.StartWorker("background reseed", func(_ context.Context) error {
		defer e.reseeding.Done()
		defer e.pending.UnSet()

		seed, err := e.drawSeed()
		if err != nil {
			return err
		}
		defer clear(seed)

		e.lock.Lock()
		defer e.lock.Unlock()

		if e.rng == nil {
			return nil
		}
		if err := e.install(seed); err != nil {
			return fmt.Errorf("random: failed to install new generator: %w", err)
		}
		asyncReseed.Inc()
		return nil
	})
}

func (e *FastEngine) drawSeed() ([]byte, error) {
	seed := make([]byte, e.seedSize)
	if _, err := io.ReadFull(e.seeder, seed); err != nil {
		clear(seed)
		return nil, fmt.Errorf("random: failed to draw seed: %w", err)
	}
	return seed, nil
}

// reseed draws a seed and installs a new generator. The lock must be held.
func (e *FastEngine) reseed() error {
	seed, err := e.drawSeed()
	if err != nil {
		return err
	}
	defer clear(seed)

	return e.install(seed)
}

// install replaces the generator. The lock must be held.
func (e *FastEngine) install(seed []byte) error {
	rng, err := e.factory()
	if err != nil {
		return err
	}
	rng.AddSeedMaterial(seed)

	if e.rng != nil {
		step := make([]byte, e.stepSize)
		e.rng.NextBytes(step)
		rng.AddSeedMaterial(step)
		clear(step)
		e.rng.Wipe()
	}

	e.rng = rng
	e.usage = 0
	return nil
}

// Close waits for a running background reseed and wipes the generator.
func (e *FastEngine) Close() error {
	e.dispatchLock.Lock()
	if !e.closed.SetToIf(false, true) {
		e.dispatchLock.Unlock()
		return nil
	}
	e.dispatchLock.Unlock()

	if e.registry != nil {
		e.registry.Unsubscribe(e.subscriptionID)
	}
	e.reseeding.Wait()

	e.lock.Lock()
	if e.rng != nil {
		e.rng.Wipe()
		e.rng = nil
	}
	e.lock.Unlock()

	if closer, ok := e.seeder.(io.Closer); ok && e.closeSeeder {
		return closer.Close()
	}
	return nil
}
