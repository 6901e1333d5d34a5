// Package lock provides the exclusive install lock that keeps two bootstrap
// runs from replacing the same installation at once.
package lock

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gary-dev/gary-install/internal/messages"
)

// ErrLocked reports that another process holds the lock.
var ErrLocked = errors.New(messages.LockHeld)

var lockFileFn = lockFile
var unlockFileFn = unlockFile

// Lock is an acquired advisory lock on a file.
type Lock struct {
	path string
	file *os.File
	once sync.Once
	err  error
}

// Acquire opens or creates path and takes an exclusive lock without waiting.
// It returns an error wrapping ErrLocked when another process holds it.
func Acquire(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf(messages.LockOpenFmt, path, err)
	}
	if err := lockFileFn(file); err != nil {
		_ = file.Close()
		if errors.Is(err, ErrLocked) {
			return nil, fmt.Errorf(messages.LockHeldFmt, path, err)
		}
		return nil, fmt.Errorf(messages.LockFmt, path, err)
	}
	return &Lock{path: path, file: file}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and closes the lock file. Calling it again is a no-op that
// returns the first result. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.once.Do(func() {
		if err := unlockFileFn(l.file); err != nil {
			_ = l.file.Close()
			l.err = err
			return
		}
		l.err = l.file.Close()
	})
	return l.err
}
