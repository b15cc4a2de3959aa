// Package staging provides ephemeral, uniquely named working directories for
// a single fetch attempt.
package staging

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentx-labs/atm/internal/fault"
	"github.com/agentx-labs/atm/internal/platform"
)

// Area is a staging directory owned by whoever created it. The owner must
// call Destroy.
type Area struct {
	path   string
	logger *zap.Logger

	once sync.Once
}

// New creates <root>/<uuidv7> with owner-only permissions. root is created
// if missing.
func New(root string, logger *zap.Logger) (*Area, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	if err := platform.EnsureDir(root, platform.DirPermNormal); err != nil {
		return nil, &fault.IOError{Path: root, Err: err}
	}

	path := filepath.Join(root, id.String())
	if err := os.Mkdir(path, platform.DirPermSecure); err != nil {
		return nil, &fault.IOError{Path: path, Err: err}
	}
	// Mkdir is subject to the umask.
	if err := platform.Chmod(path, platform.DirPermSecure); err != nil {
		os.Remove(path)
		return nil, &fault.IOError{Path: path, Err: err}
	}

	logger.Debug("created staging area", zap.String("path", path))
	return &Area{path: path, logger: logger}, nil
}

// Path returns the staging directory.
func (a *Area) Path() string { return a.path }

// Destroy removes the staging directory and everything in it. Removal
// failures are logged, not returned. Only the first call does any work.
func (a *Area) Destroy() {
	a.once.Do(func() {
		if err := os.RemoveAll(a.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.logger.Warn("failed to remove staging area", zap.String("path", a.path), zap.Error(err))
			return
		}
		a.logger.Debug("removed staging area", zap.String("path", a.path))
	})
}
