package random

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/tevino/abool"
	"golang.org/x/sync/errgroup"

	"github.com/safing/portrand/crypto/hash"
	"github.com/safing/portrand/log"
	"github.com/safing/portrand/pool"
)

// SlowEngine combines the output of all its hashers. Every output block
// requires one draw from every hasher.
//
// Every raw draw, every digest and every combined value of a block must be
// distinct. A duplicate is treated as a broken source and fails the call.
type SlowEngine struct {
	lock    sync.RWMutex
	hashers []*Hasher
	width   int

	closed *abool.AtomicBool

	bindLock       sync.Mutex
	bound          *abool.AtomicBool
	registry       *pool.Registry
	subscriptionID uuid.UUID
	binding        sync.WaitGroup
}

// MinHashers is the minimum amount of hashers of an engine. With a single
// hasher, the output would always equal that hasher's output and fail the
// distinctness check.
const MinHashers = 2

// NewSlowEngine returns a new engine. It needs at least MinHashers hashers,
// all with the same width. The engine takes ownership of the hashers.
func NewSlowEngine(hashers ...*Hasher) (*SlowEngine, error) {
	if len(hashers) < MinHashers {
		return nil, fmt.Errorf("%w: need at least %d hashers, got %d", ErrNoHashers, MinHashers, len(hashers))
	}

	width := 0
	for _, h := range hashers {
		if h == nil {
			return nil, ErrNilSource
		}
		switch {
		case width == 0:
			width = h.Width()
		case h.Width() != width:
			return nil, fmt.Errorf("%w: hasher %s has width %d, expected %d", hash.ErrWidthMismatch, h.Name(), h.Width(), width)
		}
	}

	return &SlowEngine{
		hashers: append([]*Hasher(nil), hashers...),
		width:   width,
		closed:  abool.New(),
		bound:   abool.New(),
	}, nil
}

// Width returns the size of a single output block.
func (e *SlowEngine) Width() int {
	return e.width
}

// Hashers returns the names of the current hashers.
func (e *SlowEngine) Hashers() []string {
	e.lock.RLock()
	defer e.lock.RUnlock()

	names := make([]string, 0, len(e.hashers))
	for _, h := range e.hashers {
		names = append(names, h.Name())
	}
	return names
}

// AddHasher adds a hasher at runtime. In-flight reads are not affected.
func (e *SlowEngine) AddHasher(h *Hasher) error {
	if h == nil {
		return ErrNilSource
	}
	if h.Width() != e.width {
		return fmt.Errorf("%w: hasher %s has width %d, expected %d", hash.ErrWidthMismatch, h.Name(), h.Width(), e.width)
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if e.closed.IsSet() {
		return ErrClosed
	}
	e.hashers = append(e.hashers, h)
	return nil
}

// BindPool adds the persistent pool as a source. If the pool was never
// seeded, the engine waits for it to become available and adds it then.
// Any other error is returned.
func (e *SlowEngine) BindPool(opts pool.Options, chain *hash.Chain) error {
	if chain == nil {
		return hash.ErrEmptyChain
	}
	if chain.Width() != e.width {
		return fmt.Errorf("%w: pool chain has width %d, expected %d", hash.ErrWidthMismatch, chain.Width(), e.width)
	}
	if opts.Registry == nil {
		opts.Registry = pool.DefaultRegistry
	}

	err := e.bindPool(opts, chain)
	if !errors.Is(err, pool.ErrUnseeded) {
		return err
	}

	e.bindLock.Lock()
	if e.closed.IsSet() || e.registry != nil {
		e.bindLock.Unlock()
		return nil
	}
	e.registry = opts.Registry
	e.subscriptionID = opts.Registry.Subscribe(func(event pool.Event) {
		if event.Type == pool.EventAvailable {
			e.bindPoolLater(opts, chain)
		}
	})
	e.bindLock.Unlock()
	log.Debugf("random: pool not yet seeded, waiting for it to become available")

	// The pool might have been seeded in the meantime.
	if opts.Registry.Available() {
		e.bindPoolLater(opts, chain)
	}
	return nil
}

func (e *SlowEngine) bindPool(opts pool.Options, chain *hash.Chain) error {
	if e.bound.IsSet() {
		return nil
	}

	p, err := pool.Open(nil, opts)
	if err != nil {
		return err
	}

	h, err := NewHasher("pool", p, chain)
	if err == nil && e.bound.SetToIf(false, true) {
		err = e.AddHasher(h)
		if err == nil {
			log.Infof("random: added persistent pool as entropy source")
			return nil
		}
	}
	_ = p.Close()
	return err
}

// bindPoolLater binds the pool in the background, as it is called from event handlers.
func (e *SlowEngine) bindPoolLater(opts pool.Options, chain *hash.Chain) {
	e.bindLock.Lock()
	defer e.bindLock.Unlock()

	if e.closed.IsSet() || e.bound.IsSet() {
		return
	}

	e.binding.Add(1)
	module.StartWorker("bind pool", func(_ context.Context) error {
		defer e.binding.Done()

		err := e.bindPool(opts, chain)
		switch {
		case err == nil:
			e.unsubscribe()
		case errors.Is(err, ErrClosed):
		default:
			log.Warningf("random: failed to add persistent pool: %s", err)
		}
		return nil
	})
}

func (e *SlowEngine) unsubscribe() {
	e.bindLock.Lock()
	defer e.bindLock.Unlock()

	if e.registry != nil {
		e.registry.Unsubscribe(e.subscriptionID)
		e.registry = nil
	}
}

// Read fills p. It implements io.Reader.
func (e *SlowEngine) Read(p []byte) (int, error) {
	if err := e.GetBytes(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// GetBytes fills p. On error, p is wiped.
func (e *SlowEngine) GetBytes(p []byte) error {
	if e.closed.IsSet() {
		return ErrClosed
	}
	if len(p) == 0 {
		return nil
	}

	for pos := 0; pos < len(p); {
		block, err := e.block()
		if err != nil {
			clear(p)
			return err
		}
		pos += copy(p[pos:], block)
		clear(block)
	}

	slowBytes.Add(len(p))
	return nil
}

// GetNonZeroBytes fills p with non-zero bytes. On error, p is wiped.
func (e *SlowEngine) GetNonZeroBytes(p []byte) error {
	return fillNonZero(p, e.GetBytes)
}

// block produces one output block.
func (e *SlowEngine) block() ([]byte, error) {
	e.lock.RLock()
	hashers := append([]*Hasher(nil), e.hashers...)
	e.lock.RUnlock()
	if len(hashers) == 0 {
		return nil, ErrClosed
	}

	drawings := make([]*drawing, len(hashers))
	defer func() {
		for _, d := range drawings {
			if d != nil {
				d.wipe()
			}
		}
	}()

	var g errgroup.Group
	for i, h := range hashers {
		i, h := i, h
		g.Go(func() error {
			d, err := h.draw()
			drawings[i] = d
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	output := make([]byte, e.width)
	values := make([][]byte, 0, len(hashers)*3+1)
	for _, d := range drawings {
		xorInto(output, d.output)
		values = append(values, d.values()...)
	}
	values = append(values, output)

	for i := 0; i < len(values)-1; i++ {
		for j := i + 1; j < len(values); j++ {
			if bytes.Equal(values[i], values[j]) {
				clear(output)
				duplicates.Inc()
				log.Errorf("random: detected duplicate entropy, at least one of %s is broken", hasherNames(hashers))
				return nil, ErrDuplicateDetected
			}
		}
	}

	return output, nil
}

// Close closes all hashers.
func (e *SlowEngine) Close() error {
	e.bindLock.Lock()
	if !e.closed.SetToIf(false, true) {
		e.bindLock.Unlock()
		return nil
	}
	e.bindLock.Unlock()

	e.unsubscribe()
	e.binding.Wait()

	e.lock.Lock()
	hashers := e.hashers
	e.hashers = nil
	e.lock.Unlock()

	var result *multierror.Error
	for _, h := range hashers {
		if err := h.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("hasher %s: %w", h.Name(), err))
		}
	}
	return result.ErrorOrNil()
}

func hasherNames(hashers []*Hasher) []string {
	names := make([]string, 0, len(hashers))
	for _, h := range hashers {
		names = append(names, h.Name())
	}
	return names
}
