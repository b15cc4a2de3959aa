package workflow

import (
	"context"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/agentx-labs/atm/internal/backend"
	"github.com/agentx-labs/atm/internal/fetch"
	"github.com/agentx-labs/atm/internal/manifest"
	"github.com/agentx-labs/atm/internal/registry"
	"github.com/agentx-labs/atm/internal/staging"
)

// Fetcher stages a package from its remote. fetch.Fetcher is the production
// implementation.
type Fetcher interface {
	Fetch(ctx context.Context, name, url string) (*registry.Package, *staging.Area, error)
}

// BackendFactory builds the backend for a package's config.
type BackendFactory func(ctx context.Context, cfg manifest.BackendConfig) (backend.Backend, error)

// Paths locates the files and directories a Manager works on.
type Paths struct {
	RegistryFile string
	InstallRoot  string
	StagingRoot  string
}

// Manager runs workflows against one registry and install root.
type Manager struct {
	paths       Paths
	logger      *zap.Logger
	toolVersion string
	dockerHost  string
	parallelism int

	fetcher  Fetcher
	backends BackendFactory
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithToolVersion sets the version checked against manifest constraints.
func WithToolVersion(v string) Option {
	return func(m *Manager) {
		m.toolVersion = v
	}
}

// WithDockerHost sets the Docker Engine address for Docker backends.
func WithDockerHost(host string) Option {
	return func(m *Manager) {
		m.dockerHost = host
	}
}

// WithParallelism caps concurrent remote checks in Drift. Values below 1
// select the number of CPUs.
func WithParallelism(n int) Option {
	return func(m *Manager) {
		m.parallelism = n
	}
}

// WithFetcher replaces the git-backed fetcher.
func WithFetcher(f Fetcher) Option {
	return func(m *Manager) {
		m.fetcher = f
	}
}

// WithBackendFactory replaces backend.New.
func WithBackendFactory(f BackendFactory) Option {
	return func(m *Manager) {
		m.backends = f
	}
}

// New creates a Manager.
func New(paths Paths, opts ...Option) *Manager {
	m := &Manager{
		paths:  paths,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.parallelism < 1 {
		m.parallelism = runtime.NumCPU()
	}
	if m.fetcher == nil {
		m.fetcher = fetch.New(paths.StagingRoot,
			fetch.WithLogger(m.logger),
			fetch.WithToolVersion(m.toolVersion),
		)
	}
	if m.backends == nil {
		m.backends = func(ctx context.Context, cfg manifest.BackendConfig) (backend.Backend, error) {
			return backend.New(ctx, cfg,
				backend.WithLogger(m.logger),
				backend.WithDockerHost(m.dockerHost),
			)
		}
	}
	return m
}

// PackageDir returns where a package's working copy lives.
func (m *Manager) PackageDir(name string) string {
	return filepath.Join(m.paths.InstallRoot, name)
}

func (m *Manager) withRegistry(fn func(*registry.Registry) error) error {
	return registry.With(m.paths.RegistryFile, m.logger, fn)
}

// Packages returns the registered packages sorted by name.
func (m *Manager) Packages() ([]*registry.Package, error) {
	var pkgs []*registry.Package
	err := m.withRegistry(func(reg *registry.Registry) error {
		pkgs = reg.Packages()
		return nil
	})
	return pkgs, err
}
