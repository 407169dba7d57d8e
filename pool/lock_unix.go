//go:build unix

package pool

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type fileLock struct {
	file *os.File
}

func tryLockFile(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o0600)
	if err != nil {
		return nil, fmt.Errorf("pool: failed to open lock file: %w", err)
	}

	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
			return nil, errLocked
		}
		return nil, fmt.Errorf("pool: failed to lock: %w", err)
	}

	return &fileLock{file: f}, nil
}

func (l *fileLock) release() error {
	defer l.file.Close() //nolint:errcheck

	return unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
}
