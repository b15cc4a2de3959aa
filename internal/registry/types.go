package registry

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/agentx-labs/atm/internal/manifest"
)

// ErrInvalidName is returned for names that are not a single safe path segment.
var ErrInvalidName = errors.New("name is not suitable as a single path segment")

// Package is an installed package record.
type Package struct {
	// Name is the registry key and the package's directory name under the
	// install root.
	Name string
	// URL is the source-control remote the package was fetched from.
	URL string
	// Commit is the hex commit id checked out at install time.
	Commit string
	// Config is read from the package's own manifest.
	Config manifest.PackageConfig
}

// ShortCommit returns the first 12 characters of the commit id.
func (p *Package) ShortCommit() string {
	if len(p.Commit) > 12 {
		return p.Commit[:12]
	}
	return p.Commit
}

func (p *Package) clone() *Package {
	c := *p
	return &c
}

// record is the TOML form of a Package; the name is the table key.
type record struct {
	URL    string               `toml:"url"`
	Commit string               `toml:"commit"`
	Config manifest.ConfigTable `toml:"config"`
}

func newRecord(p *Package) record {
	return record{
		URL:    p.URL,
		Commit: p.Commit,
		Config: p.Config.Table(),
	}
}

func (r record) pkg(name string) (*Package, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	cfg, err := r.Config.PackageConfig()
	if err != nil {
		return nil, fmt.Errorf("package %q: %w", name, err)
	}
	return &Package{Name: name, URL: r.URL, Commit: r.Commit, Config: cfg}, nil
}

// ValidateName reports whether name can be used as a package name: a
// non-empty, valid UTF-8, single path component that is not "." or "..".
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: invalid UTF-8", ErrInvalidName)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case filepath.Base(name) != name || filepath.VolumeName(name) != "":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
