package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// fakeDaemon is an in-memory Daemon.
type fakeDaemon struct {
	mu sync.Mutex

	pingErr    error
	buildErr   error
	networkErr error
	// runErrAt fails the n-th RunContainer call (1-based); 0 disables it.
	runErrAt int
	runs     int

	images     map[string]BuildSpec
	networks   map[string]map[string]string
	containers map[string]ContainerSpec
	nextID     int
	closed     bool
}

func newFakeDaemon() *fakeDaemon {
	return &fakeDaemon{
		images:     map[string]BuildSpec{},
		networks:   map[string]map[string]string{},
		containers: map[string]ContainerSpec{},
	}
}

func (f *fakeDaemon) Ping(context.Context) error { return f.pingErr }

func (f *fakeDaemon) BuildImage(_ context.Context, spec BuildSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.buildErr != nil {
		return f.buildErr
	}
	f.images[spec.Tag] = spec
	return nil
}

func (f *fakeDaemon) RemoveImage(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.images[ref]; !ok {
		return fmt.Errorf("image %s: %w", ref, ErrNotFound)
	}
	delete(f.images, ref)
	return nil
}

func (f *fakeDaemon) CreateNetwork(_ context.Context, name string, labels map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.networkErr != nil {
		return f.networkErr
	}
	if _, ok := f.networks[name]; ok {
		return fmt.Errorf("network %s: %w", name, ErrConflict)
	}
	f.networks[name] = labels
	return nil
}

func (f *fakeDaemon) RemoveNetwork(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.networks[name]; !ok {
		return fmt.Errorf("network %s: %w", name, ErrNotFound)
	}
	delete(f.networks, name)
	return nil
}

func (f *fakeDaemon) RunContainer(_ context.Context, spec ContainerSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	if f.runErrAt != 0 && f.runs == f.runErrAt {
		return "", fmt.Errorf("start %s: port in use", spec.Name)
	}
	if _, ok := f.images[spec.Image]; !ok {
		return "", fmt.Errorf("image %s: %w", spec.Image, ErrNotFound)
	}
	for _, c := range f.containers {
		if c.Name == spec.Name {
			return "", fmt.Errorf("container %s: %w", spec.Name, ErrConflict)
		}
	}
	f.nextID++
	id := fmt.Sprintf("c%d", f.nextID)
	f.containers[id] = spec
	return id, nil
}

func (f *fakeDaemon) ListContainers(_ context.Context, labels map[string]string) ([]Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Container
	for id, c := range f.containers {
		if matches(c.Labels, labels) {
			out = append(out, Container{ID: id, Name: c.Name, Image: c.Image, State: "running", Labels: c.Labels})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeDaemon) RemoveContainer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.containers[id]; !ok {
		return fmt.Errorf("container %s: %w", id, ErrNotFound)
	}
	delete(f.containers, id)
	return nil
}

func (f *fakeDaemon) Close() error {
	f.closed = true
	return nil
}

func (f *fakeDaemon) containerNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, c := range f.containers {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

func (f *fakeDaemon) counts() (images, networks int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.images), len(f.networks)
}

func matches(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}
