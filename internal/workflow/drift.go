package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agentx-labs/atm/internal/registry"
	"github.com/agentx-labs/atm/internal/vcs"
)

// DriftOptions tunes Drift.
type DriftOptions struct {
	// Fetch updates each working copy's remote-tracking HEAD before
	// comparing.
	Fetch bool
}

// DriftReport is the state of one installed package.
type DriftReport struct {
	Name string
	URL  string
	// Installed is the commit recorded in the registry.
	Installed string
	// Local is the working copy's HEAD.
	Local string
	// Remote is what the remote's HEAD points to now.
	Remote  string
	Drifted bool
	// Err is set when the package could not be checked; the other
	// version fields may then be empty.
	Err error
}

// Drift checks every installed package against its remote, at most
// parallelism at a time. Failures are reported per package rather than
// aborting the whole check.
func (m *Manager) Drift(ctx context.Context, opts DriftOptions) ([]DriftReport, error) {
	var reports []DriftReport
	err := m.withRegistry(func(reg *registry.Registry) error {
		pkgs := reg.Packages()
		reports = make([]DriftReport, len(pkgs))

		var g errgroup.Group
		g.SetLimit(m.parallelism)
		for i, pkg := range pkgs {
			g.Go(func() error {
				reports[i] = m.checkDrift(ctx, pkg, opts)
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (m *Manager) checkDrift(ctx context.Context, pkg *registry.Package, opts DriftOptions) DriftReport {
	r := DriftReport{Name: pkg.Name, URL: pkg.URL, Installed: pkg.Commit}
	log := m.logger.With(zap.String("package", pkg.Name))

	fail := func(err error) DriftReport {
		log.Warn("drift check failed", zap.Error(err))
		r.Err = err
		return r
	}

	h, err := vcs.Open(ctx, m.PackageDir(pkg.Name))
	if err != nil {
		return fail(fmt.Errorf("opening working copy: %w", err))
	}

	if opts.Fetch {
		if err := h.Pull(ctx); err != nil {
			return fail(err)
		}
	}

	local, err := h.LocalVersion()
	if err != nil {
		return fail(err)
	}
	r.Local = local.String()

	remote, err := h.RemoteVersion(ctx)
	if err != nil {
		return fail(err)
	}
	r.Remote = remote.String()
	r.Drifted = local != remote

	log.Debug("drift checked", zap.String("local", local.Short()), zap.String("remote", remote.Short()), zap.Bool("drifted", r.Drifted))
	return r
}
