package fetch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agentx-labs/atm/internal/manifest"
	"github.com/agentx-labs/atm/internal/registry"
	"github.com/agentx-labs/atm/internal/staging"
	"github.com/agentx-labs/atm/internal/vcs"
)

// Fetcher stages packages under a root directory.
type Fetcher struct {
	stagingRoot string
	toolVersion string
	logger      *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithToolVersion sets the version manifests' tool constraints are checked
// against. Without it, or with a non-semver version, the check is skipped.
func WithToolVersion(v string) Option {
	return func(f *Fetcher) {
		f.toolVersion = v
	}
}

// New creates a Fetcher that stages under stagingRoot.
func New(stagingRoot string, opts ...Option) *Fetcher {
	f := &Fetcher{
		stagingRoot: stagingRoot,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch resolves url's HEAD, clones it into a new staging area, checks out
// the resolved commit and reads the manifest. On success the caller owns the
// returned area and must Destroy it; on failure nothing is left behind.
func (f *Fetcher) Fetch(ctx context.Context, name, url string) (*registry.Package, *staging.Area, error) {
	log := f.logger.With(zap.String("package", name), zap.String("url", url))

	commit, err := vcs.LatestRemoteCommit(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving remote version: %w", err)
	}
	log.Debug("resolved remote version", zap.String("commit", commit.String()))

	area, err := staging.New(f.stagingRoot, f.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating staging area: %w", err)
	}

	pkg, err := f.stage(ctx, area, name, url, commit)
	if err != nil {
		area.Destroy()
		return nil, nil, err
	}

	log.Info("fetched package", zap.String("commit", commit.Short()), zap.String("backend", string(pkg.Config.Backend.Kind())))
	return pkg, area, nil
}

func (f *Fetcher) stage(ctx context.Context, area *staging.Area, name, url string, commit vcs.CommitID) (*registry.Package, error) {
	h, err := vcs.Clone(ctx, url, area.Path())
	if err != nil {
		return nil, fmt.Errorf("cloning package: %w", err)
	}
	if err := h.Checkout(ctx, commit); err != nil {
		return nil, fmt.Errorf("checking out %s: %w", commit.Short(), err)
	}

	m, err := manifest.ParseDir(area.Path())
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if err := m.CheckCompatible(f.toolVersion); err != nil {
		return nil, err
	}

	return &registry.Package{
		Name:   name,
		URL:    url,
		Commit: commit.String(),
		Config: m.Config,
	}, nil
}
