// Package fifo provides a concurrent first-in first-out byte queue.
//
// Producers append chunks with Write, consumers fill buffers with Read.
// Readers block until their buffer is full or the queue is closed and
// drained, after which they get io.EOF.
package fifo

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/safing/portrand/container"
	"github.com/safing/portrand/utils"
)

// ErrClosed is returned when writing to a closed queue.
var ErrClosed = errors.New("fifo: queue is closed")

// Queue is a concurrent byte queue.
type Queue struct {
	lock   sync.Mutex
	data   *container.Container
	closed bool

	zeroOnRead bool
	signal     *utils.Broadcast
}

// New returns a new Queue. If zeroOnRead is set, queued data is overwritten with zeros once consumed.
func New(zeroOnRead bool) *Queue {
	q := &Queue{
		zeroOnRead: zeroOnRead,
		signal:     utils.NewBroadcast(),
	}
	q.data = q.newContainer()
	return q
}

func (q *Queue) newContainer() *container.Container {
	if q.zeroOnRead {
		return container.NewWiping()
	}
	return container.New()
}

// Write appends a copy of chunk to the queue and wakes up waiting readers.
func (q *Queue) Write(chunk []byte) (int, error) {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.closed {
		return 0, ErrClosed
	}
	if len(chunk) == 0 {
		return 0, nil
	}

	c := make([]byte, len(chunk))
	copy(c, chunk)
	q.data.Append(c)
	q.signal.Notify()

	return len(chunk), nil
}

// Read fills p completely, blocking as long as needed. It only returns less
// than len(p) bytes together with io.EOF, when the queue was closed and drained.
func (q *Queue) Read(p []byte) (int, error) {
	return q.ReadContext(context.Background(), p)
}

// ReadContext is like Read, but gives up when ctx is canceled. Bytes read
// until then stay in p and are counted in n.
func (q *Queue) ReadContext(ctx context.Context, p []byte) (n int, err error) {
	for n < len(p) {
		// get signal before checking, so we do not miss a write
		signal := q.signal.Wait()

		read, closed := q.read(p[n:])
		n += read
		switch {
		case n == len(p):
			return n, nil
		case closed:
			return n, io.EOF
		}

		select {
		case <-signal:
		case <-ctx.Done():
			return n, ctx.Err()
		}
	}
	return n, nil
}

// ReadAvailable copies as much queued data into p as is available, without blocking.
func (q *Queue) ReadAvailable(p []byte) int {
	n, _ := q.read(p)
	return n
}

func (q *Queue) read(p []byte) (n int, closed bool) {
	q.lock.Lock()
	defer q.lock.Unlock()

	if len(p) > 0 && q.data.Length() > 0 {
		n, _ = q.data.WriteToSlice(p)
		// signal drain to producers
		q.signal.Notify()
	}
	return n, q.closed
}

// Len returns the amount of queued bytes.
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()

	return q.data.Length()
}

// Notify returns a channel that is closed on the next change of the queue: a write, a read that consumed data, a wipe or closing.
func (q *Queue) Notify() <-chan struct{} {
	return q.signal.Wait()
}

// Closed returns whether the queue is closed.
func (q *Queue) Closed() bool {
	q.lock.Lock()
	defer q.lock.Unlock()

	return q.closed
}

// Close closes the queue for writing. Queued data can still be read. Closing multiple times is allowed.
func (q *Queue) Close() error {
	q.lock.Lock()
	defer q.lock.Unlock()

	if !q.closed {
		q.closed = true
		q.signal.Notify()
	}
	return nil
}

// Wipe overwrites all queued data with zeros and drops it.
func (q *Queue) Wipe() {
	q.lock.Lock()
	defer q.lock.Unlock()

	q.data.Wipe()
	q.data = q.newContainer()
	q.signal.Notify()
}
