package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quillcms/qpm/internal/archive"
	"github.com/quillcms/qpm/internal/logging"
)

// mergeDepthLimit caps how deep archive entries are considered for
// placement by the merge strategy. Deeper entries ride along only when a
// shallower directory is replaced wholesale.
const mergeDepthLimit = 2

// binDirName is the directory whose immediate files are marked
// executable after placement.
const binDirName = "bin"

// Placement actions recorded in the merge outcome log.
const (
	ActionCopied       = "copied"
	ActionReplacedDir  = "replaced_dir"
	ActionSkippedDepth = "skipped_depth"
	ActionSkippedLink  = "skipped_symlink"
	ActionFailed       = "failed"
)

// PlacementOutcome records what happened to one archive entry during a
// merge install. Failures here never fail the install; the log makes
// them observable.
type PlacementOutcome struct {
	Entry  string
	Target string
	Action string
	Err    error
}

// replaceInstall is the whole-replace strategy: the archive's single
// top-level container directory replaces whatever is at installPath.
// It returns false when the archive does not have exactly one top-level
// directory, which this strategy depends on.
func (i *Installer) replaceInstall(ctx context.Context, pkg *archive.Archive, staging, installPath string) bool {
	log := logging.FromContext(ctx)
	i.placements = nil

	container, ok := pkg.ContainerDir()
	if !ok {
		log.Error().
			Str("component", "installer").
			Str("operation", "replace").
			Str("package", pkg.Path()).
			Msg("archive does not contain a single top-level package directory")
		return false
	}

	if pathExists(installPath) {
		if err := os.RemoveAll(installPath); err != nil {
			log.Warn().
				Str("component", "installer").
				Str("operation", "replace").
				Err(err).
				Str("install_path", installPath).
				Msg("failed to remove existing destination")
		}
	}

	if err := os.MkdirAll(filepath.Dir(installPath), stagingDirMode); err != nil {
		log.Warn().
			Str("component", "installer").
			Str("operation", "replace").
			Err(err).
			Str("install_path", installPath).
			Msg("failed to create destination parent directory")
	}

	if err := moveEntry(filepath.Join(staging, container), installPath); err != nil {
		log.Warn().
			Str("component", "installer").
			Str("operation", "replace").
			Err(err).
			Str("install_path", installPath).
			Msg("failed to move staged package into place")
	}

	return true
}

// mergeInstall is the depth-limited merge strategy: each shallow archive
// entry is placed individually on top of the existing destination.
// Entries deeper than the depth limit are skipped, symlinked top-level
// targets are never touched, and every leaf operation is best-effort.
// Destination entries absent from the archive are left alone.
func (i *Installer) mergeInstall(ctx context.Context, pkg *archive.Archive, staging, installPath string) {
	log := logging.FromContext(ctx)
	i.placements = nil

	container, hasContainer := pkg.ContainerDir()

	// The depth cap counts raw entry components. With a container
	// directory that means only the package's top level is placed entry
	// by entry; deeper files arrive when a directory is replaced
	// wholesale.
	var placedDirs []string
	for _, entry := range pkg.Entries() {
		name := strings.TrimSuffix(entry.Name, "/")
		if name == "" {
			continue
		}

		rel := name
		if hasContainer {
			if name == container {
				continue
			}
			rel = strings.TrimPrefix(name, container+"/")
		}

		// A directory entry's move already carried everything under it;
		// touching its children again would delete what the move placed.
		if placedUnder(placedDirs, name) {
			continue
		}

		if entry.Depth() > mergeDepthLimit {
			i.placed(log, PlacementOutcome{Entry: entry.Name, Action: ActionSkippedDepth})
			continue
		}

		staged := filepath.Join(staging, name)
		target := filepath.Join(installPath, rel)

		// Never write through a symlinked top-level destination, even
		// for entries nested below it.
		top, _, _ := strings.Cut(rel, "/")
		if isSymlink(filepath.Join(installPath, top)) {
			i.placed(log, PlacementOutcome{Entry: entry.Name, Target: target, Action: ActionSkippedLink})
			continue
		}

		if entry.IsDir {
			outcome := PlacementOutcome{Entry: entry.Name, Target: target, Action: ActionCopied}
			if isDir(target) {
				outcome.Action = ActionReplacedDir
			}
			if err := os.RemoveAll(target); err != nil {
				outcome.Action, outcome.Err = ActionFailed, err
			} else {
				_ = os.MkdirAll(filepath.Dir(target), stagingDirMode)
				if err := moveEntry(staged, target); err != nil {
					outcome.Action, outcome.Err = ActionFailed, err
				} else {
					placedDirs = append(placedDirs, name+"/")
					if filepath.Base(target) == binDirName {
						markExecutable(target)
					}
				}
			}
			i.placed(log, outcome)
			continue
		}

		if isDir(target) {
			outcome := PlacementOutcome{Entry: entry.Name, Target: target, Action: ActionReplacedDir}
			if err := os.RemoveAll(target); err != nil {
				outcome.Action, outcome.Err = ActionFailed, err
			} else if err := moveEntry(staged, target); err != nil {
				outcome.Action, outcome.Err = ActionFailed, err
			}
			i.placed(log, outcome)
			continue
		}

		outcome := PlacementOutcome{Entry: entry.Name, Target: target, Action: ActionCopied}
		_ = os.Remove(target)
		_ = os.MkdirAll(filepath.Dir(target), stagingDirMode)
		if err := copyFile(staged, target); err != nil {
			outcome.Action, outcome.Err = ActionFailed, err
		}
		i.placed(log, outcome)
	}
}

// placedUnder reports whether name lies under a directory entry that was
// already moved into place wholesale.
func placedUnder(placed []string, name string) bool {
	for _, prefix := range placed {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// placed appends an outcome to the placement log and traces it.
func (i *Installer) placed(log *zerolog.Logger, outcome PlacementOutcome) {
	i.placements = append(i.placements, outcome)

	evt := log.Debug().
		Str("component", "installer").
		Str("operation", "merge").
		Str("entry", outcome.Entry).
		Str("action", outcome.Action)
	if outcome.Target != "" {
		evt = evt.Str("target", outcome.Target)
	}
	if outcome.Err != nil {
		evt = evt.Err(outcome.Err)
	}
	evt.Msg("placement")
}
