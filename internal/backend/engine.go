package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
)

// Engine is a Daemon backed by the Docker Engine API.
type Engine struct {
	cli    *client.Client
	logger *zap.Logger
}

// NewEngine connects to host, or to the engine named by the DOCKER_*
// environment when host is empty. The API version is negotiated on first use.
func NewEngine(host string, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &Engine{cli: cli, logger: logger}, nil
}

func (e *Engine) Ping(ctx context.Context) error {
	_, err := e.cli.Ping(ctx)
	return translate(err)
}

func (e *Engine) BuildImage(ctx context.Context, spec BuildSpec) error {
	buildCtx, err := archive.TarWithOptions(spec.ContextDir, &archive.TarOptions{
		ExcludePatterns: []string{".git"},
	})
	if err != nil {
		return fmt.Errorf("archiving build context: %w", err)
	}
	defer buildCtx.Close()

	resp, err := e.cli.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Dockerfile:  spec.Dockerfile,
		Tags:        []string{spec.Tag},
		Labels:      spec.Labels,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return translate(err)
	}
	defer resp.Body.Close()

	out := &zapio.Writer{Log: e.logger.With(zap.String("image", spec.Tag)), Level: zap.DebugLevel}
	defer out.Close()

	// The build result is only known once the progress stream ends.
	return jsonmessage.DisplayJSONMessagesStream(resp.Body, out, 0, false, nil)
}

func (e *Engine) RemoveImage(ctx context.Context, ref string) error {
	_, err := e.cli.ImageRemove(ctx, ref, image.RemoveOptions{Force: true, PruneChildren: true})
	return translate(err)
}

func (e *Engine) CreateNetwork(ctx context.Context, name string, labels map[string]string) error {
	_, err := e.cli.NetworkCreate(ctx, name, network.CreateOptions{
		Driver: "bridge",
		Labels: labels,
	})
	return translate(err)
}

func (e *Engine) RemoveNetwork(ctx context.Context, name string) error {
	return translate(e.cli.NetworkRemove(ctx, name))
}

func (e *Engine) RunContainer(ctx context.Context, spec ContainerSpec) (string, error) {
	hostConfig := &container.HostConfig{
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
	}
	if spec.Network != "" {
		hostConfig.NetworkMode = container.NetworkMode(spec.Network)
	}

	created, err := e.cli.ContainerCreate(ctx, &container.Config{
		Image:  spec.Image,
		Env:    spec.Env,
		Labels: spec.Labels,
	}, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return "", translate(err)
	}
	for _, w := range created.Warnings {
		e.logger.Warn("container create warning", zap.String("container", spec.Name), zap.String("warning", w))
	}

	if err := e.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return created.ID, translate(err)
	}
	return created.ID, nil
}

func (e *Engine) ListContainers(ctx context.Context, labels map[string]string) ([]Container, error) {
	args := filters.NewArgs()
	for k, v := range labels {
		args.Add("label", k+"="+v)
	}

	list, err := e.cli.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return nil, translate(err)
	}

	out := make([]Container, 0, len(list))
	for _, c := range list {
		var name string
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		out = append(out, Container{
			ID:     c.ID,
			Name:   name,
			Image:  c.Image,
			State:  c.State,
			Labels: c.Labels,
		})
	}
	return out, nil
}

func (e *Engine) RemoveContainer(ctx context.Context, id string) error {
	return translate(e.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}))
}

func (e *Engine) Close() error { return e.cli.Close() }

// translate maps engine error classes onto the Daemon contract.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errdefs.IsNotFound(err):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errdefs.IsConflict(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return err
	}
}
