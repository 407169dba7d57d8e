package harvest

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is the default pause between two sampled bits.
const DefaultInterval = time.Millisecond

// TickSampler takes the least significant bit of the time the scheduler
// wakes the sampling goroutine up after a short sleep. The more work the
// program does, the better the quality, as the scheduler cannot immediately
// run the goroutine when it's ready.
type TickSampler struct {
	Interval time.Duration
}

// NewTickSampler returns a new TickSampler with the default interval.
func NewTickSampler() *TickSampler {
	return &TickSampler{Interval: DefaultInterval}
}

// Sample fills the chunk with one bit per tick.
func (s *TickSampler) Sample(ctx context.Context, chunk []byte) error {
	timer := time.NewTimer(s.Interval)
	defer timer.Stop()

	for i := range chunk {
		var b byte
		for bit := 0; bit < 8; bit++ {
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
			b = b<<1 | byte(time.Now().UnixNano()&1)
			timer.Reset(s.Interval)
		}
		chunk[i] = b
	}
	return nil
}

// RaceSampler lets a spinner goroutine increment a counter as fast as it can
// while the sampling goroutine sleeps, and takes the least significant bit of
// the counter after every sleep. The spinner only runs while a chunk is being
// sampled.
type RaceSampler struct {
	Interval time.Duration
}

// NewRaceSampler returns a new RaceSampler with the default interval.
func NewRaceSampler() *RaceSampler {
	return &RaceSampler{Interval: DefaultInterval}
}

// Sample fills the chunk with one bit per sleep.
func (s *RaceSampler) Sample(ctx context.Context, chunk []byte) error {
	var (
		counter atomic.Uint64
		stop    atomic.Bool
		wg      sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for !stop.Load() {
			counter.Add(1)
		}
	}()
	defer func() {
		stop.Store(true)
		wg.Wait()
	}()

	timer := time.NewTimer(s.Interval)
	defer timer.Stop()

	var last uint64
	for i := range chunk {
		var b byte
		for bit := 0; bit < 8; bit++ {
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
			// make sure the spinner made progress
			current := counter.Load()
			for current == last {
				runtime.Gosched()
				if ctx.Err() != nil {
					return ctx.Err()
				}
				current = counter.Load()
			}
			last = current

			b = b<<1 | byte(current&1)
			timer.Reset(s.Interval)
		}
		chunk[i] = b
	}
	return nil
}
