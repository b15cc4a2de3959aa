package workflow

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/agentx-labs/atm/internal/fault"
	"github.com/agentx-labs/atm/internal/platform"
)

// materialize copies the staged tree, .git included, to dst. The copy is
// assembled next to dst and renamed into place, so an existing working copy
// is only replaced once the new one is complete.
func materialize(src, dst string) error {
	parent := filepath.Dir(dst)
	if err := platform.EnsureDir(parent, platform.DirPermNormal); err != nil {
		return &fault.IOError{Path: parent, Err: err}
	}

	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dst)+"-")
	if err != nil {
		return &fault.IOError{Path: parent, Err: err}
	}

	if err := copyDir(src, tmp); err != nil {
		os.RemoveAll(tmp)
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}

	if err := os.RemoveAll(dst); err != nil {
		os.RemoveAll(tmp)
		return &fault.IOError{Path: dst, Err: err}
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.RemoveAll(tmp)
		return &fault.IOError{Path: dst, Err: err}
	}
	return nil
}

// copyDir recursively copies src into dst, preserving modes and symlinks.
func copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return &fault.IOError{Path: src, Err: err}
	}

	if err := os.MkdirAll(dst, platform.DirPermSecure); err != nil {
		return &fault.IOError{Path: dst, Err: err}
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return &fault.IOError{Path: src, Err: err}
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		switch {
		case entry.IsDir():
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type()&os.ModeSymlink != 0:
			target, err := os.Readlink(srcPath)
			if err != nil {
				return &fault.IOError{Path: srcPath, Err: err}
			}
			if err := os.Symlink(target, dstPath); err != nil {
				return &fault.IOError{Path: dstPath, Err: err}
			}
		case entry.Type().IsRegular():
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
		// Sockets, devices and pipes have no place in a package tree.
	}

	// Applied last so read-only directories can still be filled.
	if err := platform.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		return &fault.IOError{Path: dst, Err: err}
	}
	return nil
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &fault.IOError{Path: src, Err: err}
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return &fault.IOError{Path: src, Err: err}
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return &fault.IOError{Path: dst, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &fault.IOError{Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &fault.IOError{Path: dst, Err: err}
	}
	return nil
}
