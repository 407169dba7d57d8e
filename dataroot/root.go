package dataroot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/safing/portrand/utils"
)

// Common errors.
var (
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrNotSet             = errors.New("data root is not set")
)

// DirName is the name of the data directory within the user config directory.
const DirName = "portrand"

var (
	root     *utils.DirStructure
	rootLock sync.Mutex
)

// Initialize initializes the data root directory.
func Initialize(rootDir string, perm os.FileMode) error {
	rootLock.Lock()
	defer rootLock.Unlock()

	if root != nil {
		return ErrAlreadyInitialized
	}

	newRoot := utils.NewDirStructure(rootDir, perm)
	if err := newRoot.Ensure(); err != nil {
		return err
	}
	root = newRoot
	return nil
}

// Root returns the data root directory.
func Root() *utils.DirStructure {
	rootLock.Lock()
	defer rootLock.Unlock()

	return root
}

// DefaultDir returns the default data root: a directory within the user config directory.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotSet, err)
	}
	return filepath.Join(configDir, DirName), nil
}

// Ensure returns the data root, initializing it with the default directory if needed.
func Ensure() (*utils.DirStructure, error) {
	if r := Root(); r != nil {
		return r, nil
	}

	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	err = Initialize(dir, 0o0700)
	if err != nil && !errors.Is(err, ErrAlreadyInitialized) {
		return nil, err
	}
	return Root(), nil
}
