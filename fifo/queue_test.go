package fifo

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	t.Parallel()

	q := New(false)
	for _, chunk := range []string{"a", "bb", "ccc"} {
		n, err := q.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}
	assert.Equal(t, 6, q.Len())

	buf := make([]byte, 6)
	n, err := q.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "abbccc", string(buf))
	assert.Equal(t, 0, q.Len())
}

func TestQueueWriteCopies(t *testing.T) {
	t.Parallel()

	q := New(false)
	chunk := []byte("data")
	_, err := q.Write(chunk)
	require.NoError(t, err)
	copy(chunk, "xxxx")

	buf := make([]byte, 4)
	_, err = q.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "data", string(buf))
}

func TestQueueBlockingRead(t *testing.T) {
	t.Parallel()

	q := New(false)

	done := make(chan []byte)
	go func() {
		buf := make([]byte, 8)
		n, err := q.Read(buf)
		assert.NoError(t, err)
		assert.Equal(t, 8, n)
		done <- buf
	}()

	_, err := q.Write([]byte("1234"))
	require.NoError(t, err)

	select {
	case <-done:
		t.Fatal("read should still be blocked")
	case <-time.After(20 * time.Millisecond):
	}

	_, err = q.Write([]byte("5678"))
	require.NoError(t, err)

	select {
	case buf := <-done:
		assert.Equal(t, "12345678", string(buf))
	case <-time.After(time.Second):
		t.Fatal("read did not complete")
	}
}

func TestQueueClose(t *testing.T) {
	t.Parallel()

	q := New(false)
	_, err := q.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	assert.True(t, q.Closed())

	_, err = q.Write([]byte("d"))
	assert.ErrorIs(t, err, ErrClosed)

	// drains, then reports end of stream
	buf := make([]byte, 5)
	n, err := q.Read(buf)
	assert.Equal(t, 3, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "abc", string(buf[:n]))

	n, err = q.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	// empty read is a no-op
	n, err = q.Read(nil)
	assert.Equal(t, 0, n)
	assert.NoError(t, err)
}

func TestQueueCloseWakesReaders(t *testing.T) {
	t.Parallel()

	q := New(false)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Read(make([]byte, 10))
			assert.ErrorIs(t, err, io.EOF)
		}()
	}

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, q.Close())
	wg.Wait()
}

func TestQueueReadContext(t *testing.T) {
	t.Parallel()

	q := New(false)
	_, err := q.Write([]byte("ab"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	buf := make([]byte, 4)
	n, err := q.ReadContext(ctx, buf)
	assert.Equal(t, 2, n)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "ab", string(buf[:n]))
}

func TestQueueReadAvailable(t *testing.T) {
	t.Parallel()

	q := New(false)
	assert.Equal(t, 0, q.ReadAvailable(make([]byte, 4)))

	_, err := q.Write([]byte("abcdef"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	assert.Equal(t, 4, q.ReadAvailable(buf))
	assert.Equal(t, "abcd", string(buf))
	assert.Equal(t, 2, q.ReadAvailable(buf))
	assert.Equal(t, "ef", string(buf[:2]))
}

func TestQueueZeroOnRead(t *testing.T) {
	t.Parallel()

	q := New(true)

	// queue a chunk we keep a reference to
	chunk := []byte("secret")
	q.lock.Lock()
	q.data.Append(chunk)
	q.lock.Unlock()

	buf := make([]byte, 3)
	_, err := q.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "sec", string(buf))
	assert.Equal(t, []byte{0, 0, 0, 'r', 'e', 't'}, chunk)

	q.Wipe()
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, make([]byte, 6), chunk)
}

func TestQueueNotify(t *testing.T) {
	t.Parallel()

	q := New(false)

	signal := q.Notify()
	_, err := q.Write([]byte("x"))
	require.NoError(t, err)
	select {
	case <-signal:
	default:
		t.Fatal("write should signal")
	}

	signal = q.Notify()
	q.ReadAvailable(make([]byte, 1))
	select {
	case <-signal:
	default:
		t.Fatal("read should signal")
	}
}
