package backend

import (
	"context"

	"go.uber.org/zap"

	"github.com/agentx-labs/atm/internal/registry"
	"github.com/agentx-labs/atm/internal/staging"
)

// local is the backend for packages that need no managed runtime.
type local struct {
	logger *zap.Logger
}

func (l *local) Install(_ context.Context, pkg *registry.Package, _ *staging.Area) error {
	l.logger.Debug("local backend: nothing to install", zap.String("package", pkg.Name))
	return nil
}

func (l *local) Uninstall(_ context.Context, pkg *registry.Package) error {
	l.logger.Debug("local backend: nothing to uninstall", zap.String("package", pkg.Name))
	return nil
}

func (l *local) Close() error { return nil }
