package random

import (
	"errors"
	"io"
	"sync/atomic"
)

var errTestSource = errors.New("test source failure")

// countingSource counts reads and closes of the wrapped reader.
type countingSource struct {
	io.Reader
	reads  atomic.Int32
	closes atomic.Int32
	err    error
}

func (cs *countingSource) Read(p []byte) (int, error) {
	cs.reads.Add(1)
	return cs.Reader.Read(p)
}

func (cs *countingSource) Close() error {
	cs.closes.Add(1)
	return cs.err
}

// failingSource fails every read.
type failingSource struct{}

func (failingSource) Read([]byte) (int, error) { return 0, errTestSource }
func (failingSource) Close() error             { return nil }
