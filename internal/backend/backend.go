package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agentx-labs/atm/internal/manifest"
	"github.com/agentx-labs/atm/internal/registry"
	"github.com/agentx-labs/atm/internal/staging"
)

// Backend deploys and removes packages.
type Backend interface {
	// Install deploys pkg from the tree staged in area.
	Install(ctx context.Context, pkg *registry.Package, area *staging.Area) error
	// Uninstall removes everything Install created for pkg. Removing
	// something that is already gone is not an error.
	Uninstall(ctx context.Context, pkg *registry.Package) error
	// Close releases connections held by the backend.
	Close() error
}

// ConstructionError is returned by New when a backend cannot be created.
type ConstructionError struct {
	Kind manifest.BackendKind
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("creating %s backend: %v", e.Kind, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// OperationError is a failed Install or Uninstall.
type OperationError struct {
	Op      string
	Package string
	Err     error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Package, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

type options struct {
	logger     *zap.Logger
	daemon     Daemon
	dockerHost string
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDaemon makes Docker backends use d instead of connecting to an engine.
func WithDaemon(d Daemon) Option {
	return func(o *options) {
		o.daemon = d
	}
}

// WithDockerHost overrides the engine address otherwise taken from the
// DOCKER_HOST environment.
func WithDockerHost(host string) Option {
	return func(o *options) {
		o.dockerHost = host
	}
}

// New returns the backend for cfg. Docker backends ping their daemon before
// returning.
func New(ctx context.Context, cfg manifest.BackendConfig, opts ...Option) (Backend, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	switch c := cfg.(type) {
	case manifest.LocalConfig:
		return &local{logger: o.logger}, nil
	case manifest.DockerConfig:
		return newDocker(ctx, c, o)
	default:
		return nil, &ConstructionError{Kind: "unknown", Err: fmt.Errorf("unsupported backend config %T", cfg)}
	}
}
