package platform

import (
	"errors"
	"os"
)

// ErrWouldBlock is returned by TryLock when another open file description
// already holds the lock.
var ErrWouldBlock = errors.New("file is locked")

// TryLock places an exclusive advisory lock on f without blocking.
// The lock belongs to the open file, so a second os.OpenFile of the same path,
// even within one process, does not share it. The operating system drops the
// lock when the holder exits.
func TryLock(f *os.File) error {
	return tryLock(f)
}

// Unlock releases a lock taken by TryLock.
func Unlock(f *os.File) error {
	return unlock(f)
}
