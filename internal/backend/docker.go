package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/agentx-labs/atm/internal/branding"
	"github.com/agentx-labs/atm/internal/manifest"
	"github.com/agentx-labs/atm/internal/registry"
	"github.com/agentx-labs/atm/internal/staging"
)

// ImageRef returns the image tag a package's commit is built as.
func ImageRef(pkg *registry.Package) string {
	return fmt.Sprintf("%s/%s:%s", branding.CLIName(), pkg.Name, pkg.ShortCommit())
}

// NetworkName returns the network a scoped package's containers join.
func NetworkName(name string) string {
	return fmt.Sprintf("%s-%s", branding.CLIName(), name)
}

// ContainerName returns the name of replica i of a package.
func ContainerName(name string, i int) string {
	return fmt.Sprintf("%s-%s-%d", branding.CLIName(), name, i)
}

func packageLabels(pkg *registry.Package) map[string]string {
	return map[string]string{
		branding.Label("package"): pkg.Name,
		branding.Label("commit"):  pkg.Commit,
	}
}

func selector(name string) map[string]string {
	return map[string]string{branding.Label("package"): name}
}

// docker runs a package as MaxReplica containers built from its Dockerfile.
type docker struct {
	cfg    manifest.DockerConfig
	daemon Daemon
	logger *zap.Logger
}

func newDocker(ctx context.Context, cfg manifest.DockerConfig, o options) (*docker, error) {
	d := o.daemon
	if d == nil {
		engine, err := NewEngine(o.dockerHost, o.logger)
		if err != nil {
			return nil, &ConstructionError{Kind: manifest.KindDocker, Err: err}
		}
		d = engine
	}

	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, &ConstructionError{Kind: manifest.KindDocker, Err: fmt.Errorf("daemon unreachable: %w", err)}
	}

	return &docker{cfg: cfg, daemon: d, logger: o.logger}, nil
}

func (d *docker) Install(ctx context.Context, pkg *registry.Package, area *staging.Area) error {
	log := d.logger.With(zap.String("package", pkg.Name), zap.String("commit", pkg.ShortCommit()))

	dockerfile, err := d.dockerfile(area.Path())
	if err != nil {
		return &OperationError{Op: "install", Package: pkg.Name, Err: err}
	}

	// A previous failed or interrupted install may have left replicas behind.
	if err := d.removeContainers(ctx, pkg.Name); err != nil {
		return &OperationError{Op: "install", Package: pkg.Name, Err: fmt.Errorf("removing stale containers: %w", err)}
	}

	image := ImageRef(pkg)
	log.Info("building image", zap.String("image", image), zap.String("dockerfile", dockerfile))
	if err := d.daemon.BuildImage(ctx, BuildSpec{
		ContextDir: area.Path(),
		Dockerfile: dockerfile,
		Tag:        image,
		Labels:     packageLabels(pkg),
	}); err != nil {
		return &OperationError{Op: "install", Package: pkg.Name, Err: fmt.Errorf("building image %s: %w", image, err)}
	}

	var network string
	createdNetwork := false
	if d.cfg.Scoped {
		network = NetworkName(pkg.Name)
		err := d.daemon.CreateNetwork(ctx, network, selector(pkg.Name))
		if err != nil && !errors.Is(err, ErrConflict) {
			d.rollback(ctx, pkg, "", log)
			return &OperationError{Op: "install", Package: pkg.Name, Err: fmt.Errorf("creating network %s: %w", network, err)}
		}
		createdNetwork = err == nil
	}

	env := []string{
		branding.EnvVar("ENDPOINT_PATH") + "=" + pkg.Config.Endpoint.Path,
		branding.EnvVar("ENDPOINT_PROTOCOL") + "=" + string(pkg.Config.Endpoint.Protocol),
	}

	for i := 0; i < d.cfg.MaxReplica; i++ {
		name := ContainerName(pkg.Name, i)
		id, err := d.daemon.RunContainer(ctx, ContainerSpec{
			Name:    name,
			Image:   image,
			Env:     env,
			Labels:  packageLabels(pkg),
			Network: network,
		})
		if err != nil {
			if !createdNetwork {
				network = ""
			}
			d.rollback(ctx, pkg, network, log)
			return &OperationError{Op: "install", Package: pkg.Name, Err: fmt.Errorf("starting %s: %w", name, err)}
		}
		log.Debug("started container", zap.String("container", name), zap.String("id", id))
	}

	log.Info("package deployed", zap.Int("replicas", d.cfg.MaxReplica), zap.Bool("scoped", d.cfg.Scoped))
	return nil
}

// rollback removes what a failed Install created after the image was built:
// containers, network (when non-empty) and the image itself.
func (d *docker) rollback(ctx context.Context, pkg *registry.Package, network string, log *zap.Logger) {
	ctx = context.WithoutCancel(ctx)
	if err := d.removeContainers(ctx, pkg.Name); err != nil {
		log.Warn("failed to roll back containers", zap.Error(err))
	}
	if network != "" {
		if err := d.daemon.RemoveNetwork(ctx, network); err != nil && !errors.Is(err, ErrNotFound) {
			log.Warn("failed to roll back network", zap.String("network", network), zap.Error(err))
		}
	}
	image := ImageRef(pkg)
	if err := d.daemon.RemoveImage(ctx, image); err != nil && !errors.Is(err, ErrNotFound) {
		log.Warn("failed to roll back image", zap.String("image", image), zap.Error(err))
	}
}

func (d *docker) Uninstall(ctx context.Context, pkg *registry.Package) error {
	log := d.logger.With(zap.String("package", pkg.Name))

	if err := d.removeContainers(ctx, pkg.Name); err != nil {
		return &OperationError{Op: "uninstall", Package: pkg.Name, Err: err}
	}

	if d.cfg.Scoped {
		network := NetworkName(pkg.Name)
		if err := d.daemon.RemoveNetwork(ctx, network); err != nil && !errors.Is(err, ErrNotFound) {
			return &OperationError{Op: "uninstall", Package: pkg.Name, Err: fmt.Errorf("removing network %s: %w", network, err)}
		}
	}

	image := ImageRef(pkg)
	if err := d.daemon.RemoveImage(ctx, image); err != nil && !errors.Is(err, ErrNotFound) {
		return &OperationError{Op: "uninstall", Package: pkg.Name, Err: fmt.Errorf("removing image %s: %w", image, err)}
	}

	log.Info("package undeployed")
	return nil
}

func (d *docker) Close() error { return d.daemon.Close() }

// removeContainers removes every container labelled with the package name.
func (d *docker) removeContainers(ctx context.Context, name string) error {
	containers, err := d.daemon.ListContainers(ctx, selector(name))
	if err != nil {
		return fmt.Errorf("listing containers: %w", err)
	}
	var errs []error
	for _, c := range containers {
		if err := d.daemon.RemoveContainer(ctx, c.ID); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, fmt.Errorf("removing container %s: %w", c.Name, err))
			continue
		}
		d.logger.Debug("removed container", zap.String("package", name), zap.String("container", c.Name))
	}
	return errors.Join(errs...)
}

// dockerfile checks that the configured Dockerfile exists inside root and
// returns it as a slash-separated path relative to root.
func (d *docker) dockerfile(root string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(d.cfg.Dockerfile))
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("dockerfile %q is outside the package", d.cfg.Dockerfile)
	}
	info, err := os.Stat(filepath.Join(root, rel))
	if err != nil {
		return "", fmt.Errorf("dockerfile %q: %w", d.cfg.Dockerfile, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("dockerfile %q is a directory", d.cfg.Dockerfile)
	}
	return filepath.ToSlash(rel), nil
}
