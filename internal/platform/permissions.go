package platform

import (
	"os"
	"runtime"
)

// Permission constants.
const (
	DirPermSecure  os.FileMode = 0700
	DirPermNormal  os.FileMode = 0755
	FilePermNormal os.FileMode = 0644
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// EnsureDir creates dir and its parents if needed and applies mode to dir
// itself, regardless of the process umask.
func EnsureDir(dir string, mode os.FileMode) error {
	if err := os.MkdirAll(dir, mode); err != nil {
		return err
	}
	return Chmod(dir, mode)
}
