package manifest

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ParseVersionConstraint parses a semver constraint expression such as
// ">=1.0.0,<2.0.0", "~1.2.3" or "^1.2.3".
func ParseVersionConstraint(constraint string) (*semver.Constraints, error) {
	if constraint == "" {
		return nil, errors.New("empty version constraint")
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	return c, nil
}

// SatisfiesConstraint reports whether version satisfies the constraint.
// A leading "v" on the version is accepted.
func SatisfiesConstraint(version string, constraint *semver.Constraints) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", version, err)
	}
	return constraint.Check(v), nil
}

// CompareVersions compares two semver strings, returning -1, 0 or 1.
func CompareVersions(v1, v2 string) (int, error) {
	sv1, err := semver.NewVersion(v1)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", v1, err)
	}
	sv2, err := semver.NewVersion(v2)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", v2, err)
	}
	return sv1.Compare(sv2), nil
}
