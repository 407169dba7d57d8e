//go:build !unix && !windows

package pool

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// fileLock falls back to exclusive creation of the lock file. A stale lock
// file left behind by a crash must be removed manually.
type fileLock struct {
	file *os.File
	path string
}

func tryLockFile(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, errLocked
		}
		return nil, fmt.Errorf("pool: failed to create lock file: %w", err)
	}

	return &fileLock{file: f, path: path}, nil
}

func (l *fileLock) release() error {
	_ = l.file.Close()
	return os.Remove(l.path)
}
