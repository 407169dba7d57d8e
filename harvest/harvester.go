// Package harvest collects entropy from timing noise in background workers.
//
// A Harvester runs a Sampler in its own goroutine, filters out biased
// samples and queues the remaining raw bits until they are read. Harvesters
// are slow: expect a few hundred bits per second.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"sync"
	"time"

	"github.com/tevino/abool"

	"github.com/safing/portrand/fifo"
	"github.com/safing/portrand/log"
)

const (
	// ChunkSize is the size of a single sample in bytes.
	ChunkSize = 16

	// DefaultMaxPoolSize is the default amount of queued bytes after which sampling pauses.
	DefaultMaxPoolSize = 4096

	chunkBits = ChunkSize * 8
	// Chunks with less than 20% or more than 80% of bits set are discarded.
	minBitsSet = chunkBits * 20 / 100
	maxBitsSet = chunkBits * 80 / 100

	samplerBackoff = 10 * time.Millisecond
)

var (
	// ErrClosed is returned when reading from a closed harvester.
	ErrClosed = errors.New("harvest: harvester is closed")
	// ErrNoSampler is returned when creating a harvester without a sampler.
	ErrNoSampler = errors.New("harvest: no sampler configured")
)

// Sampler fills chunks with raw bits.
type Sampler interface {
	// Sample fills the chunk with raw bits, most significant bit first.
	// It must return when ctx is canceled.
	Sample(ctx context.Context, chunk []byte) error
}

// Config configures a harvester.
type Config struct {
	// Name is used for logging and metrics.
	Name string
	// Sampler produces raw bits.
	Sampler Sampler
	// MaxPoolSize is the amount of queued bytes after which sampling pauses.
	MaxPoolSize int
	// Fallback is read from when the harvester cannot satisfy a read on its own.
	Fallback *Harvester
}

// Harvester collects entropy in the background.
type Harvester struct {
	name        string
	sampler     Sampler
	maxPoolSize int
	fallback    *Harvester

	queue    *fifo.Queue
	readLock sync.Mutex

	ctx       context.Context
	cancelCtx context.CancelFunc
	closed    *abool.AtomicBool
	wg        sync.WaitGroup

	metrics *harvesterMetrics
}

// New returns a new harvester and starts its worker.
func New(cfg Config) (*Harvester, error) {
	if cfg.Sampler == nil {
		return nil, ErrNoSampler
	}
	if cfg.Name == "" {
		cfg.Name = "custom"
	}
	if cfg.MaxPoolSize <= 0 {
		cfg.MaxPoolSize = DefaultMaxPoolSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Harvester{
		name:        cfg.Name,
		sampler:     cfg.Sampler,
		maxPoolSize: cfg.MaxPoolSize,
		fallback:    cfg.Fallback,
		queue:       fifo.New(true),
		ctx:         ctx,
		cancelCtx:   cancel,
		closed:      abool.New(),
		metrics:     newHarvesterMetrics(cfg.Name),
	}

	h.wg.Add(1)
	go h.worker()

	return h, nil
}

// NewTickHarvester returns a new harvester sampling scheduler wake-up times. The shared tick harvester is used as fallback.
func NewTickHarvester(maxPoolSize int) *Harvester {
	h, _ := New(Config{
		Name:        string(KindTick),
		Sampler:     NewTickSampler(),
		MaxPoolSize: maxPoolSize,
		Fallback:    Shared(KindTick),
	})
	return h
}

// NewRaceHarvester returns a new harvester sampling a racing counter. The shared race harvester is used as fallback.
func NewRaceHarvester(maxPoolSize int) *Harvester {
	h, _ := New(Config{
		Name:        string(KindRace),
		Sampler:     NewRaceSampler(),
		MaxPoolSize: maxPoolSize,
		Fallback:    Shared(KindRace),
	})
	return h
}

// Name returns the name of the harvester.
func (h *Harvester) Name() string {
	return h.name
}

func (h *Harvester) String() string {
	return fmt.Sprintf("harvester %s", h.name)
}

func (h *Harvester) worker() {
	defer h.wg.Done()

	chunk := make([]byte, ChunkSize)
	defer clear(chunk)

	for {
		// pause while the queue is full
		signal := h.queue.Notify()
		if h.queue.Len() >= h.maxPoolSize {
			select {
			case <-signal:
				continue
			case <-h.ctx.Done():
				return
			}
		}

		err := h.sampler.Sample(h.ctx, chunk)
		switch {
		case h.ctx.Err() != nil:
			return
		case err != nil:
			log.Warningf("harvest: %s failed to sample: %s", h.name, err)
			select {
			case <-time.After(samplerBackoff):
			case <-h.ctx.Done():
				return
			}
			continue
		}

		if !acceptChunk(chunk) {
			h.metrics.rejected.Inc()
			continue
		}

		if _, err := h.queue.Write(chunk); err != nil {
			return
		}
		h.metrics.accepted.Inc()
	}
}

// acceptChunk returns whether the amount of set bits in the chunk lies in the accepted range.
func acceptChunk(chunk []byte) bool {
	var set int
	for _, b := range chunk {
		set += bits.OnesCount8(b)
	}
	return set >= minBitsSet && set <= maxBitsSet
}

// Available returns the amount of currently queued bytes.
func (h *Harvester) Available() int {
	return h.queue.Len()
}

// ReadAvailable copies currently queued bytes into p without blocking.
func (h *Harvester) ReadAvailable(p []byte) int {
	return h.queue.ReadAvailable(p)
}

// Read fills p completely, waiting for the worker if necessary. Queued bytes
// of the fallback harvester are used to speed things up.
func (h *Harvester) Read(p []byte) (int, error) {
	if h.closed.IsSet() {
		return 0, ErrClosed
	}

	h.readLock.Lock()
	defer h.readLock.Unlock()

	var pos int
	for pos < len(p) {
		signal := h.queue.Notify()

		pos += h.queue.ReadAvailable(p[pos:])
		if pos < len(p) && h.fallback != nil && h.fallback != h {
			pos += h.fallback.ReadAvailable(p[pos:])
		}
		if pos == len(p) {
			break
		}

		// wait about as long as the missing bits take to sample
		timer := time.NewTimer(time.Duration((len(p)-pos)*8/2) * time.Millisecond)
		select {
		case <-signal:
		case <-timer.C:
		case <-h.ctx.Done():
			timer.Stop()
			clear(p[:pos])
			return 0, ErrClosed
		}
		timer.Stop()
	}

	return len(p), nil
}

// Close stops the worker and wipes all queued bytes.
func (h *Harvester) Close() error {
	if !h.closed.SetToIf(false, true) {
		return nil
	}

	h.cancelCtx()
	h.wg.Wait()
	h.queue.Wipe()
	return h.queue.Close()
}
