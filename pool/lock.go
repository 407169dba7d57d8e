package pool

import (
	"errors"
	"time"
)

// acquireLock takes the exclusive lock at path, retrying maxTries times with delay in between.
func acquireLock(path string, maxTries int, delay time.Duration) (*fileLock, error) {
	for try := 0; try < maxTries; try++ {
		l, err := tryLockFile(path)
		switch {
		case err == nil:
			return l, nil
		case !errors.Is(err, errLocked):
			return nil, err
		}
		time.Sleep(delay)
	}
	return nil, ErrLockTimeout
}
