// Package installer places Quill package archives into a Quill instance.
//
// An install validates the instance root and the destination path,
// extracts the archive into a uniquely named staging directory, places
// the staged files with one of two strategies (whole-directory replace
// or depth-limited merge), and always removes the staging directory.
//
// Every validating method returns a bool and records the blocking
// condition in a single per-Installer result slot; callers read
// LastErrorCode or LastErrorMessage immediately after the call that
// produced it, before any other call overwrites the slot. An Installer
// is therefore not safe for concurrent use; create one per operation.
package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/quillcms/qpm/internal/archive"
	"github.com/quillcms/qpm/internal/logging"
)

// appRootMarkers are the entries that identify a directory as a Quill
// instance root. All of them must exist.
var appRootMarkers = []string{
	"index.php",
	"bin",
	"user",
	filepath.Join("system", "config", "system.yaml"),
}

// Options configures a single install operation.
type Options struct {
	// Overwrite allows replacing a destination that already exists.
	Overwrite bool

	// IgnoreSymlinks aborts the install when the destination is a
	// symbolic link instead of writing through it.
	IgnoreSymlinks bool

	// Sophisticated selects the depth-limited merge strategy instead of
	// the whole-directory replace.
	Sophisticated bool

	// InstallPath is the destination, relative to the instance root,
	// where the package is placed.
	InstallPath string

	// ExcludeChecks lists validation kinds that are tolerated: when
	// destination validation lands on one of them, validation still
	// passes and the install decision is left to the option vetoes.
	ExcludeChecks []ErrorKind
}

// Installer runs package installs against Quill instances.
type Installer struct {
	stagingBase string
	last        ValidationResult
	placements  []PlacementOutcome
}

// New creates an Installer that stages extractions under stagingBase.
func New(stagingBase string) *Installer {
	return &Installer{stagingBase: stagingBase}
}

// LastErrorCode returns the kind recorded by the most recent call.
func (i *Installer) LastErrorCode() ErrorKind {
	return i.last.Kind
}

// LastErrorMessage renders the most recent result as a human-readable
// message.
func (i *Installer) LastErrorMessage() string {
	return i.last.Message()
}

// Result returns a copy of the current result slot.
func (i *Installer) Result() ValidationResult {
	return i.last
}

// Placements returns the per-entry outcome log of the most recent merge
// install. It is empty after a whole-replace install.
func (i *Installer) Placements() []PlacementOutcome {
	return i.placements
}

func (i *Installer) record(kind ErrorKind, path string) {
	i.last = ValidationResult{Kind: kind, Path: path}
}

// IsAppRoot reports whether root is a Quill instance: the entry point,
// the bin and user directories, and the system configuration file must
// all exist. Any missing marker fails the whole check and records
// ErrNotApplicationRoot.
func (i *Installer) IsAppRoot(root string) bool {
	for _, marker := range appRootMarkers {
		if !pathExists(filepath.Join(root, marker)) {
			i.record(ErrNotApplicationRoot, root)
			return false
		}
	}
	i.record(ErrNone, root)
	return true
}

// destCheck pairs a destination predicate with the kind it records.
type destCheck struct {
	kind  ErrorKind
	match func(path string) bool
}

// destChecks is the fixed-priority validation chain: the first matching
// predicate wins and later ones are not evaluated.
var destChecks = []destCheck{
	{ErrTargetIsSymlink, isSymlink},
	{ErrTargetExists, pathExists},
	{ErrTargetNotFound, func(path string) bool { return !pathExists(path) }},
	{ErrTargetNotDirectory, func(path string) bool { return pathExists(path) && !isDir(path) }},
}

// ValidateDestination checks the destination path against the fixed
// priority chain (symlink, exists, not found, not a directory) and
// records the first matching kind. It returns true when no condition
// matched, or when the matched kind is listed in exclude.
func (i *Installer) ValidateDestination(path string, exclude []ErrorKind) bool {
	kind := ErrNone
	for _, check := range destChecks {
		if check.match(path) {
			kind = check.kind
			break
		}
	}
	i.record(kind, path)

	for _, excluded := range exclude {
		if kind == excluded {
			return true
		}
	}
	return kind == ErrNone
}

// Install places the package archive at pkgPath into the Quill instance
// at destRoot according to opts. It returns false on the first blocking
// condition, which is retrievable via LastErrorCode until the next call.
func (i *Installer) Install(ctx context.Context, pkgPath, destRoot string, opts Options) bool {
	log := logging.FromContext(ctx)

	destRoot = strings.TrimRight(destRoot, string(os.PathSeparator))
	installPath := filepath.Join(destRoot, opts.InstallPath)

	log.Debug().
		Str("component", "installer").
		Str("operation", "install").
		Str("package", pkgPath).
		Str("install_path", installPath).
		Bool("sophisticated", opts.Sophisticated).
		Msg("starting install")

	if !i.IsAppRoot(destRoot) {
		return false
	}
	if !i.ValidateDestination(installPath, opts.ExcludeChecks) {
		return false
	}

	// The exclude set may have let a symlink or pre-existing destination
	// through structurally; the options get a second veto here.
	if i.last.Kind == ErrTargetIsSymlink && opts.IgnoreSymlinks {
		return false
	}
	if i.last.Kind == ErrTargetExists && !opts.Overwrite {
		return false
	}

	pkg, err := archive.Open(pkgPath)
	if err != nil {
		log.Error().
			Str("component", "installer").
			Err(err).
			Str("package", pkgPath).
			Msg("failed to open package archive")
		i.record(ErrArchiveOpenFailed, pkgPath)
		return false
	}
	defer pkg.Close()

	staging := filepath.Join(i.stagingBase, ulid.Make().String())
	if mkErr := os.MkdirAll(staging, stagingDirMode); mkErr != nil {
		log.Error().
			Str("component", "installer").
			Err(mkErr).
			Str("staging", staging).
			Msg("failed to create staging directory")
		i.record(ErrArchiveExtractFailed, pkgPath)
		return false
	}
	defer os.RemoveAll(staging)

	if extractErr := pkg.ExtractTo(staging); extractErr != nil {
		log.Error().
			Str("component", "installer").
			Err(extractErr).
			Str("package", pkgPath).
			Str("staging", staging).
			Msg("failed to extract package archive")
		i.record(ErrArchiveExtractFailed, pkgPath)
		return false
	}

	if opts.Sophisticated {
		i.mergeInstall(ctx, pkg, staging, installPath)
	} else if !i.replaceInstall(ctx, pkg, staging, installPath) {
		i.record(ErrArchiveExtractFailed, pkgPath)
		return false
	}

	log.Info().
		Str("component", "installer").
		Str("operation", "install").
		Str("package", pkgPath).
		Str("install_path", installPath).
		Msg("package installed")

	i.record(ErrNone, installPath)
	return true
}
