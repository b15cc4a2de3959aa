package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrIncompatible is returned when a manifest requires a different tool version.
var ErrIncompatible = errors.New("package requires a different tool version")

// CheckCompatible reports whether toolVersion satisfies the manifest's
// version constraint. Manifests without a constraint and builds whose version
// is not semver (e.g., "dev") always pass.
func (m *Manifest) CheckCompatible(toolVersion string) error {
	if m.Requires == "" {
		return nil
	}

	v, err := parseSemver(toolVersion)
	if err != nil {
		return nil
	}

	c, err := parseConstraint(m.Requires)
	if err != nil {
		return fmt.Errorf("parsing constraint %q: %w", m.Requires, err)
	}

	if ok, reasons := c.Validate(v); !ok {
		msgs := make([]string, 0, len(reasons))
		for _, r := range reasons {
			msgs = append(msgs, r.Error())
		}
		return fmt.Errorf("%w: have %s, need %s (%s)", ErrIncompatible, v, m.Requires, strings.Join(msgs, "; "))
	}
	return nil
}

func parseConstraint(s string) (*semver.Constraints, error) {
	return semver.NewConstraint(s)
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(version, "v"))
}
