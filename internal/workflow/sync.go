package workflow

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/agentx-labs/atm/internal/registry"
	"github.com/agentx-labs/atm/internal/staging"
)

// Action is what Sync did.
type Action string

// Sync outcomes.
const (
	ActionInstalled Action = "installed"
	ActionRefreshed Action = "refreshed"
	ActionUpToDate  Action = "up-to-date"
)

// SyncOptions tunes Sync.
type SyncOptions struct {
	// Name overrides the name derived from the URL.
	Name string
	// Refresh reinstalls an already installed package when its remote has
	// moved, instead of failing with ErrAlreadyInstalled.
	Refresh bool
}

// SyncResult describes a completed Sync.
type SyncResult struct {
	Action  Action
	Package *registry.Package
	// Previous is the replaced entry for ActionRefreshed.
	Previous *registry.Package
}

// Sync installs the package at url, or refreshes it when it is installed
// and opts.Refresh is set. The registry stays locked throughout and is
// written back on return, whatever the outcome.
func (m *Manager) Sync(ctx context.Context, url string, opts SyncOptions) (*SyncResult, error) {
	name, err := ResolveName(url, opts.Name)
	if err != nil {
		return nil, err
	}

	var result *SyncResult
	err = m.withRegistry(func(reg *registry.Registry) error {
		if existing, ok := reg.Get(name); ok {
			if !opts.Refresh {
				return fmt.Errorf("%w: %s", ErrAlreadyInstalled, name)
			}
			r, err := m.refresh(ctx, reg, existing, url)
			result = r
			return err
		}

		pkg, err := m.install(ctx, reg, name, url)
		if err != nil {
			return err
		}
		result = &SyncResult{Action: ActionInstalled, Package: pkg}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (m *Manager) install(ctx context.Context, reg *registry.Registry, name, url string) (*registry.Package, error) {
	pkg, area, err := m.fetcher.Fetch(ctx, name, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", name, err)
	}
	defer area.Destroy()

	if err := m.deploy(ctx, pkg, area); err != nil {
		return nil, err
	}

	reg.Add(pkg)
	m.logger.Info("package installed",
		zap.String("package", pkg.Name),
		zap.String("commit", pkg.ShortCommit()),
		zap.String("backend", string(pkg.Config.Backend.Kind())),
	)
	return pkg, nil
}

// deploy installs pkg through its backend and materializes its working
// copy. A failed materialization undoes the install.
func (m *Manager) deploy(ctx context.Context, pkg *registry.Package, area *staging.Area) error {
	b, err := m.backends(ctx, pkg.Config.Backend)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.Install(ctx, pkg, area); err != nil {
		return err
	}

	dir := m.PackageDir(pkg.Name)
	if err := materialize(area.Path(), dir); err != nil {
		if uerr := b.Uninstall(context.WithoutCancel(ctx), pkg); uerr != nil {
			m.logger.Warn("failed to undo install", zap.String("package", pkg.Name), zap.Error(uerr))
		}
		if rerr := os.RemoveAll(dir); rerr != nil {
			m.logger.Warn("failed to remove working copy", zap.String("path", dir), zap.Error(rerr))
		}
		return fmt.Errorf("materializing %s: %w", pkg.Name, err)
	}
	return nil
}
