package backend

import (
	"context"
	"errors"
)

// Errors a Daemon reports for missing or clashing engine objects.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// BuildSpec describes an image build.
type BuildSpec struct {
	// ContextDir is the build context root.
	ContextDir string
	// Dockerfile is slash-separated and relative to ContextDir.
	Dockerfile string
	Tag        string
	Labels     map[string]string
}

// ContainerSpec describes a container to create and start.
type ContainerSpec struct {
	Name    string
	Image   string
	Env     []string
	Labels  map[string]string
	Network string // empty for the engine default
}

// Container is a container as listed by the engine.
type Container struct {
	ID     string
	Name   string
	Image  string
	State  string
	Labels map[string]string
}

// Daemon is the subset of a container engine the Docker backend uses.
// Implementations wrap ErrNotFound and ErrConflict where the engine reports
// those conditions.
type Daemon interface {
	Ping(ctx context.Context) error
	BuildImage(ctx context.Context, spec BuildSpec) error
	RemoveImage(ctx context.Context, ref string) error
	CreateNetwork(ctx context.Context, name string, labels map[string]string) error
	RemoveNetwork(ctx context.Context, name string) error
	// RunContainer creates and starts a container and returns its id.
	RunContainer(ctx context.Context, spec ContainerSpec) (string, error)
	// ListContainers returns all containers, running or not, carrying
	// every label in labels.
	ListContainers(ctx context.Context, labels map[string]string) ([]Container, error)
	// RemoveContainer stops and removes a container.
	RemoveContainer(ctx context.Context, id string) error
	Close() error
}
