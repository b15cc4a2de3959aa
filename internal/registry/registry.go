package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/agentx-labs/atm/internal/fault"
	"github.com/agentx-labs/atm/internal/platform"
)

// ErrLocked is returned by Open when another handle or process holds the
// registry file.
var ErrLocked = errors.New("locked by another handle or process")

// Registry is an open, locked registry file and its in-memory contents.
// Mutations stay in memory until Close.
type Registry struct {
	path   string
	file   *os.File
	logger *zap.Logger

	mu       sync.RWMutex
	packages map[string]*Package

	closeOnce sync.Once
	closeErr  error
}

// Open opens the registry file at path, creating it and its parent
// directories if absent, and takes an exclusive lock on it without waiting.
// If the lock is held elsewhere Open fails with ErrLocked.
func Open(path string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := platform.EnsureDir(filepath.Dir(path), platform.DirPermNormal); err != nil {
		return nil, &fault.IOError{Path: path, Err: err}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, platform.FilePermNormal)
	if err != nil {
		return nil, &fault.IOError{Path: path, Err: err}
	}

	if err := platform.TryLock(f); err != nil {
		f.Close()
		if errors.Is(err, platform.ErrWouldBlock) {
			return nil, fmt.Errorf("%s: %w", path, ErrLocked)
		}
		return nil, &fault.IOError{Path: path, Err: err}
	}

	packages, err := load(f, path)
	if err != nil {
		if uerr := platform.Unlock(f); uerr != nil {
			logger.Warn("failed to unlock registry", zap.String("path", path), zap.Error(uerr))
		}
		f.Close()
		return nil, err
	}

	logger.Debug("opened registry", zap.String("path", path), zap.Int("packages", len(packages)))

	return &Registry{
		path:     path,
		file:     f,
		logger:   logger,
		packages: packages,
	}, nil
}

// With opens the registry at path, calls fn, and closes the registry
// afterwards whatever fn returns.
func With(path string, logger *zap.Logger, fn func(*Registry) error) (err error) {
	r, err := Open(path, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(r)
}

func load(f *os.File, path string) (map[string]*Package, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &fault.IOError{Path: path, Err: err}
	}

	var records map[string]record
	if err := toml.Unmarshal(data, &records); err != nil {
		return nil, &fault.DecodeError{Path: path, Err: err}
	}

	packages := make(map[string]*Package, len(records))
	for name, rec := range records {
		p, err := rec.pkg(name)
		if err != nil {
			return nil, &fault.DecodeError{Path: path, Err: err}
		}
		packages[name] = p
	}
	return packages, nil
}

// Path returns the backing file path.
func (r *Registry) Path() string { return r.path }

// Len returns the number of packages.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.packages)
}

// Contains reports whether a package named name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.packages[name]
	return ok
}

// Get returns a copy of the package named name.
func (r *Registry) Get(name string) (*Package, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.packages[name]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// Add registers p under p.Name and returns the entry it replaced, if any.
func (r *Registry) Add(p *Package) *Package {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.packages[p.Name]
	r.packages[p.Name] = p.clone()
	return prev
}

// Remove unregisters name and returns the removed entry, if any.
func (r *Registry) Remove(name string) *Package {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.packages[name]
	if !ok {
		return nil
	}
	delete(r.packages, name)
	return prev
}

// Packages returns copies of all packages sorted by name.
func (r *Registry) Packages() []*Package {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Package, 0, len(r.packages))
	for _, p := range r.packages {
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close writes the registry back to its file and releases the lock.
// Encode and write failures are logged rather than returned: by the time the
// registry is released the operation it guarded has already succeeded or
// failed. The lock is released regardless. Calls after the first are no-ops.
func (r *Registry) Close() error {
	r.closeOnce.Do(func() {
		r.flush()
		r.closeErr = r.release()
	})
	return r.closeErr
}

func (r *Registry) flush() {
	r.mu.RLock()
	data, err := encode(r.packages)
	r.mu.RUnlock()
	if err != nil {
		r.logger.Error("failed to serialize package registry", zap.String("path", r.path), zap.Error(err))
		return
	}

	if err := r.file.Truncate(0); err != nil {
		r.logger.Error("failed to truncate package registry", zap.String("path", r.path), zap.Error(err))
		return
	}
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		r.logger.Error("failed to seek package registry", zap.String("path", r.path), zap.Error(err))
		return
	}
	if _, err := r.file.Write(data); err != nil {
		r.logger.Error("failed to write package registry", zap.String("path", r.path), zap.Error(err))
		return
	}
	if err := r.file.Sync(); err != nil {
		r.logger.Error("failed to sync package registry", zap.String("path", r.path), zap.Error(err))
	}
}

func (r *Registry) release() error {
	var errs []error
	if err := platform.Unlock(r.file); err != nil {
		r.logger.Warn("failed to unlock package registry", zap.String("path", r.path), zap.Error(err))
		errs = append(errs, &fault.IOError{Path: r.path, Err: err})
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, &fault.IOError{Path: r.path, Err: err})
	}
	return errors.Join(errs...)
}

// encode renders packages as one TOML table per package, keyed by name.
func encode(packages map[string]*Package) ([]byte, error) {
	records := make(map[string]record, len(packages))
	for name, p := range packages {
		records[name] = newRecord(p)
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
