// Package manifest reads the optional package.yaml manifest that Quill
// package archives carry, and the instance version from a Quill
// installation's system configuration. Manifest data is advisory: it
// feeds logs and compatibility warnings, never install decisions.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// manifestFile is the manifest filename inside a package directory.
const manifestFile = "package.yaml"

// ErrManifestNotFound is returned when a package carries no manifest.
var ErrManifestNotFound = errors.New("package manifest not found")

// Manifest describes a Quill package.
type Manifest struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// MinAppVersion is a semver constraint on the Quill instance
	// version, e.g. ">=1.7.0".
	MinAppVersion string `yaml:"min_app_version"`
}

// Load reads package.yaml from dir. ErrManifestNotFound is returned when
// the file does not exist.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrManifestNotFound
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// Compatible reports whether appVersion satisfies the manifest's
// min_app_version constraint. A manifest without a constraint is
// compatible with everything.
func (m *Manifest) Compatible(appVersion string) (bool, error) {
	if m.MinAppVersion == "" {
		return true, nil
	}

	constraint, err := ParseVersionConstraint(m.MinAppVersion)
	if err != nil {
		return false, err
	}
	return SatisfiesConstraint(appVersion, constraint)
}

// systemConfig is the subset of system/config/system.yaml qpm reads.
type systemConfig struct {
	Version string `yaml:"version"`
	Title   string `yaml:"title"`
}

// InstanceInfo is what qpm knows about a Quill installation from its
// system configuration.
type InstanceInfo struct {
	Version string
	Title   string
}

// ReadInstanceInfo parses system/config/system.yaml under the instance
// root. Missing or malformed files return an error; a file without a
// version yields an empty Version.
func ReadInstanceInfo(root string) (*InstanceInfo, error) {
	path := filepath.Join(root, "system", "config", "system.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading system config: %w", err)
	}

	var cfg systemConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing system config: %w", err)
	}
	return &InstanceInfo{Version: cfg.Version, Title: cfg.Title}, nil
}
