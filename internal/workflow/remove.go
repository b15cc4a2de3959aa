package workflow

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/agentx-labs/atm/internal/fault"
	"github.com/agentx-labs/atm/internal/registry"
)

// Remove undeploys a package, deletes its working copy and unregisters it.
// The registry entry is only dropped once both succeeded, so a failed
// removal can be retried.
func (m *Manager) Remove(ctx context.Context, name string) (*registry.Package, error) {
	if err := registry.ValidateName(name); err != nil {
		return nil, err
	}

	var removed *registry.Package
	err := m.withRegistry(func(reg *registry.Registry) error {
		pkg, ok := reg.Get(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotInstalled, name)
		}

		b, err := m.backends(ctx, pkg.Config.Backend)
		if err != nil {
			return err
		}
		defer b.Close()

		if err := b.Uninstall(ctx, pkg); err != nil {
			return err
		}

		dir := m.PackageDir(name)
		if err := os.RemoveAll(dir); err != nil {
			return &fault.IOError{Path: dir, Err: err}
		}

		removed = reg.Remove(name)
		m.logger.Info("package removed", zap.String("package", name))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
