package workflow

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/agentx-labs/atm/internal/registry"
	"github.com/agentx-labs/atm/internal/vcs"
)

// refresh reinstalls existing from url when its remote has moved or the URL
// changed. The new revision is fetched before the old deployment is touched,
// so a failed fetch leaves everything as it was. A failed deploy after the
// old deployment was uninstalled removes the package and returns
// ErrRefreshAborted.
func (m *Manager) refresh(ctx context.Context, reg *registry.Registry, existing *registry.Package, url string) (*SyncResult, error) {
	log := m.logger.With(zap.String("package", existing.Name))

	if url == existing.URL {
		drifted, err := m.hasDrifted(ctx, existing)
		if err != nil {
			return nil, fmt.Errorf("checking %s for updates: %w", existing.Name, err)
		}
		if !drifted {
			log.Info("package is up to date", zap.String("commit", existing.ShortCommit()))
			return &SyncResult{Action: ActionUpToDate, Package: existing}, nil
		}
	} else {
		log.Info("package URL changed", zap.String("from", existing.URL), zap.String("to", url))
	}

	pkg, area, err := m.fetcher.Fetch(ctx, existing.Name, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", existing.Name, err)
	}
	defer area.Destroy()

	old, err := m.backends(ctx, existing.Config.Backend)
	if err != nil {
		return nil, err
	}
	defer old.Close()

	if err := old.Uninstall(ctx, existing); err != nil {
		return nil, err
	}

	if err := m.deploy(ctx, pkg, area); err != nil {
		// The old revision is already uninstalled.
		reg.Remove(existing.Name)
		dir := m.PackageDir(existing.Name)
		if rerr := os.RemoveAll(dir); rerr != nil {
			log.Warn("failed to remove working copy", zap.String("path", dir), zap.Error(rerr))
		}
		log.Error("refresh failed after uninstall, package removed", zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrRefreshAborted, existing.Name, err)
	}

	reg.Add(pkg)
	log.Info("package refreshed",
		zap.String("from", existing.ShortCommit()),
		zap.String("to", pkg.ShortCommit()),
	)
	return &SyncResult{Action: ActionRefreshed, Package: pkg, Previous: existing}, nil
}

// hasDrifted compares the working copy with its remote. Without a usable
// working copy it compares the recorded commit with the remote's HEAD.
func (m *Manager) hasDrifted(ctx context.Context, pkg *registry.Package) (bool, error) {
	h, err := vcs.Open(ctx, m.PackageDir(pkg.Name))
	if err != nil {
		m.logger.Debug("working copy unavailable, comparing recorded commit",
			zap.String("package", pkg.Name), zap.Error(err))
		remote, err := vcs.LatestRemoteCommit(ctx, pkg.URL)
		if err != nil {
			return false, err
		}
		return remote.String() != pkg.Commit, nil
	}

	local, err := h.LocalVersion()
	if err != nil {
		return false, err
	}
	remote, err := h.RemoteVersion(ctx)
	if err != nil {
		return false, err
	}
	return local != remote, nil
}
