package utils

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBroadcast(t *testing.T) {
	t.Parallel()

	b := NewBroadcast()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		signal := b.Wait()
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-signal
		}()
	}

	stale := b.Wait()
	b.Notify()
	wg.Wait()

	select {
	case <-stale:
	default:
		t.Fatal("signal should have been closed")
	}

	// new signal must not be closed yet
	select {
	case <-b.Wait():
		t.Fatal("signal should have been reset")
	case <-time.After(10 * time.Millisecond):
	}

	assert.NotEqual(t, stale, b.Wait())
}
