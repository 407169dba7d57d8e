package utils

import (
	"sync"
)

// Broadcast wakes up all current waiters at once. Waiters fetch the signal
// channel with Wait before checking their condition, so that a Notify
// between the check and the wait is not lost.
type Broadcast struct {
	lock   sync.Mutex
	signal chan struct{}
}

// NewBroadcast returns a new Broadcast.
func NewBroadcast() *Broadcast {
	return &Broadcast{
		signal: make(chan struct{}),
	}
}

// Wait returns a channel that is closed with the next call to Notify.
func (b *Broadcast) Wait() <-chan struct{} {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.signal
}

// Notify wakes up all waiters and resets the signal.
func (b *Broadcast) Notify() {
	b.lock.Lock()
	defer b.lock.Unlock()

	close(b.signal)
	b.signal = make(chan struct{})
}
