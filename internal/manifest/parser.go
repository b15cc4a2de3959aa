package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/agentx-labs/atm/internal/branding"
	"github.com/agentx-labs/atm/internal/fault"
)

// ValidationError reports schema violations found in the manifest at Path.
type ValidationError struct {
	Path   string
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: invalid manifest", e.Path)
	for _, issue := range e.Issues {
		b.WriteString("; ")
		b.WriteString(issue.String())
	}
	return b.String()
}

// PathIn returns the manifest location inside a package root.
func PathIn(root string) string {
	return filepath.Join(root, branding.ManifestFile())
}

// ParseDir reads the manifest at the root of a package tree.
func ParseDir(root string) (*Manifest, error) {
	return ParseFile(PathIn(root))
}

// ParseFile reads, validates and decodes the manifest at path.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &fault.IOError{Path: path, Err: err}
	}
	return Parse(data, path)
}

// Parse validates and decodes manifest bytes. path is only used in errors.
func Parse(data []byte, path string) (*Manifest, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, &fault.DecodeError{Path: path, Err: err}
	}
	if !result.Valid {
		return nil, &ValidationError{Path: path, Issues: result.Issues}
	}

	var file fileTable
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, &fault.DecodeError{Path: path, Err: describeTOMLError(err)}
	}

	cfg, err := ConfigTable{Backend: file.Backend, Endpoint: file.Endpoint}.PackageConfig()
	if err != nil {
		return nil, &fault.DecodeError{Path: path, Err: err}
	}

	if file.ATM != "" {
		if _, err := parseConstraint(file.ATM); err != nil {
			return nil, &ValidationError{Path: path, Issues: []ValidationIssue{{
				Path:    "/atm",
				Message: err.Error(),
				Keyword: "constraint",
			}}}
		}
	}

	return &Manifest{Requires: file.ATM, Config: cfg}, nil
}

// describeTOMLError adds the line and column to go-toml decode errors.
func describeTOMLError(err error) error {
	var de *toml.DecodeError
	if errors.As(err, &de) {
		row, col := de.Position()
		return fmt.Errorf("line %d column %d: %w", row, col, err)
	}
	return err
}
