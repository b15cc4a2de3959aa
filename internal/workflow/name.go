package workflow

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/agentx-labs/atm/internal/registry"
	"github.com/agentx-labs/atm/internal/vcs"
)

var (
	// ErrNameNotFound is returned when no name was given and none can be
	// derived from the URL.
	ErrNameNotFound = errors.New("cannot derive a package name from the URL")
	// ErrInvalidName is returned for names that are not a single safe path
	// segment.
	ErrInvalidName = registry.ErrInvalidName
	// ErrAlreadyInstalled is returned by Sync without refresh for a package
	// that is already registered.
	ErrAlreadyInstalled = errors.New("package is already installed")
	// ErrNotInstalled is returned for packages missing from the registry.
	ErrNotInstalled = errors.New("package is not installed")
	// ErrRefreshAborted is returned when a refresh uninstalled the old
	// revision but could not deploy the new one; the package is no longer
	// installed.
	ErrRefreshAborted = errors.New("refresh failed, package was uninstalled and removed")
)

// ResolveName returns explicit when set, otherwise the last path segment of
// url without a ".git" suffix. The result is validated as a package name.
func ResolveName(url, explicit string) (string, error) {
	name := explicit
	if name == "" {
		derived, err := nameFromURL(url)
		if err != nil {
			return "", err
		}
		name = derived
	}

	if err := registry.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

func nameFromURL(url string) (string, error) {
	ep, err := vcs.ParseEndpoint(url)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNameNotFound, err)
	}

	p := strings.TrimRight(strings.ReplaceAll(ep.Path, `\`, "/"), "/")
	name := strings.TrimSuffix(path.Base(p), ".git")
	if p == "" || name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("%w: %s", ErrNameNotFound, url)
	}
	return name, nil
}
