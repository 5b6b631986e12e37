package installer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mergeOpts installs into the instance root itself with the merge
// strategy, the way core and theme updates run.
func mergeOpts() Options {
	return Options{
		Overwrite:      true,
		IgnoreSymlinks: false,
		Sophisticated:  true,
		ExcludeChecks:  allChecks,
	}
}

func TestMergeDepthLimit(t *testing.T) {
	root := newAppRoot(t)
	pkg := newZip(t, []zipEntry{
		{name: "file.txt", content: "top"},
		{name: "bin/tool", content: "#!/bin/sh"},
		{name: "bin/sub/deep.txt", content: "too deep"},
	})

	inst, stagingBase := newInstaller(t)
	ok := inst.Install(context.Background(), pkg, root, mergeOpts())
	require.True(t, ok, "install failed: %s", inst.LastErrorMessage())

	assert.FileExists(t, filepath.Join(root, "file.txt"))
	assert.FileExists(t, filepath.Join(root, "bin", "tool"))
	assert.NoFileExists(t, filepath.Join(root, "bin", "sub", "deep.txt"),
		"entries beyond the depth limit must never be placed")
	assertNoStagingLeft(t, stagingBase)

	// The outcome log records the skip.
	var skipped []string
	for _, p := range inst.Placements() {
		if p.Action == ActionSkippedDepth {
			skipped = append(skipped, p.Entry)
		}
	}
	assert.Equal(t, []string{"bin/sub/deep.txt"}, skipped)
}

func TestMergeKeepsChildrenOfMovedDirs(t *testing.T) {
	root := newAppRoot(t)

	// Most zip tools write explicit directory entries ahead of the files
	// beneath them.
	pkg := newZip(t, []zipEntry{
		{name: "file.txt", content: "top"},
		{name: "bin/", dir: true},
		{name: "bin/tool", content: "#!/bin/sh"},
		{name: "bin/sub/deep.txt", content: "nested"},
	})

	inst, _ := newInstaller(t)
	ok := inst.Install(context.Background(), pkg, root, mergeOpts())
	require.True(t, ok, "install failed: %s", inst.LastErrorMessage())

	assert.FileExists(t, filepath.Join(root, "file.txt"))
	assert.FileExists(t, filepath.Join(root, "bin", "tool"),
		"children of a moved directory entry must survive")
	// The directory move carries its whole subtree along.
	assert.FileExists(t, filepath.Join(root, "bin", "sub", "deep.txt"))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(root, "bin", "tool"))
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&0111)
	}

	for _, p := range inst.Placements() {
		assert.NotEqual(t, ActionFailed, p.Action, "entry %s must not fail", p.Entry)
	}
}

func TestMergeSymlinkedTargetUntouched(t *testing.T) {
	root := newAppRoot(t)

	// Replace the bin marker directory with a symlink to a shared dir.
	shared := filepath.Join(t.TempDir(), "shared-bin")
	require.NoError(t, os.MkdirAll(shared, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(shared, "keep"), []byte("keep"), 0644))
	require.NoError(t, os.RemoveAll(filepath.Join(root, "bin")))
	require.NoError(t, os.Symlink(shared, filepath.Join(root, "bin")))

	pkg := newZip(t, []zipEntry{
		{name: "pkg/", dir: true},
		{name: "pkg/bin/", dir: true},
		{name: "pkg/bin/tool", content: "#!/bin/sh"},
	})

	inst, _ := newInstaller(t)
	ok := inst.Install(context.Background(), pkg, root, mergeOpts())
	require.True(t, ok, "install failed: %s", inst.LastErrorMessage())

	assert.True(t, isSymlink(filepath.Join(root, "bin")), "symlinked destination must survive")
	assert.FileExists(t, filepath.Join(shared, "keep"))
	assert.NoFileExists(t, filepath.Join(shared, "tool"), "merge must not write through the symlink")

	for _, p := range inst.Placements() {
		assert.Contains(t, []string{ActionSkippedLink, ActionSkippedDepth}, p.Action,
			"entry %s must not be placed", p.Entry)
	}
}

func TestMergeReplacesExistingDir(t *testing.T) {
	root := newAppRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "stale"), []byte("stale"), 0644))

	pkg := newZip(t, []zipEntry{
		{name: "pkg/", dir: true},
		{name: "pkg/bin/", dir: true},
		{name: "pkg/bin/tool", content: "#!/bin/sh"},
	})

	inst, _ := newInstaller(t)
	ok := inst.Install(context.Background(), pkg, root, mergeOpts())
	require.True(t, ok, "install failed: %s", inst.LastErrorMessage())

	assert.FileExists(t, filepath.Join(root, "bin", "tool"))
	assert.NoFileExists(t, filepath.Join(root, "bin", "stale"),
		"existing directory must be replaced, not merged into")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(root, "bin", "tool"))
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&0111, "files under bin must be marked executable")
	}
}

func TestMergeAddsNewDir(t *testing.T) {
	root := newAppRoot(t)
	pkg := newZip(t, []zipEntry{
		{name: "pkg/", dir: true},
		{name: "pkg/assets/", dir: true},
		{name: "pkg/assets/logo.svg", content: "<svg/>"},
	})

	inst, _ := newInstaller(t)
	require.True(t, inst.Install(context.Background(), pkg, root, mergeOpts()))

	assert.FileExists(t, filepath.Join(root, "assets", "logo.svg"),
		"a new directory entry brings its contents along")
}

func TestMergeLeavesUnrelatedEntries(t *testing.T) {
	root := newAppRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "unrelated.txt"), []byte("mine"), 0644))

	pkg := newZip(t, []zipEntry{{name: "file.txt", content: "new"}})

	inst, _ := newInstaller(t)
	require.True(t, inst.Install(context.Background(), pkg, root, mergeOpts()))

	assert.FileExists(t, filepath.Join(root, "unrelated.txt"),
		"merge is additive, never a mirror sync")
	assert.FileExists(t, filepath.Join(root, "file.txt"))
}

func TestMergeOverwritesFile(t *testing.T) {
	root := newAppRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.txt"), []byte("old"), 0644))

	pkg := newZip(t, []zipEntry{{name: "file.txt", content: "new"}})

	inst, _ := newInstaller(t)
	require.True(t, inst.Install(context.Background(), pkg, root, mergeOpts()))

	data, err := os.ReadFile(filepath.Join(root, "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestMergeStripsContainer(t *testing.T) {
	root := newAppRoot(t)
	pkg := newZip(t, []zipEntry{
		{name: "quill-update/", dir: true},
		{name: "quill-update/index.php", content: "<?php // updated"},
		{name: "quill-update/system/core.php", content: "<?php // beyond the depth cap"},
	})

	inst, _ := newInstaller(t)
	require.True(t, inst.Install(context.Background(), pkg, root, mergeOpts()))

	data, err := os.ReadFile(filepath.Join(root, "index.php"))
	require.NoError(t, err)
	assert.Equal(t, "<?php // updated", string(data))

	// With a container the raw depth cap keeps nested files from being
	// placed individually; system/ was not in the archive as a shallow
	// directory entry, so it stays as it was.
	assert.NoFileExists(t, filepath.Join(root, "system", "core.php"))
	assert.FileExists(t, filepath.Join(root, "system", "config", "system.yaml"))
}

func TestExtractFailureCleansUp(t *testing.T) {
	root := newAppRoot(t)
	installPath := filepath.Join("user", "plugins", "pkg")

	// The traversal entry is rejected during extraction (or already at
	// open, depending on the zip reader's path policing).
	pkg := newZip(t, []zipEntry{
		{name: "pkg/a.txt", content: "a"},
		{name: "../escape.txt", content: "evil"},
	})

	inst, stagingBase := newInstaller(t)
	ok := inst.Install(context.Background(), pkg, root, Options{
		Overwrite:     true,
		InstallPath:   installPath,
		ExcludeChecks: allChecks,
	})

	assert.False(t, ok)
	kind := inst.LastErrorCode()
	assert.True(t, kind == ErrArchiveExtractFailed || kind == ErrArchiveOpenFailed,
		"got %s", kind)
	assert.NoDirExists(t, filepath.Join(root, installPath), "destination must be untouched")
	assertNoStagingLeft(t, stagingBase)
}

func TestPlacementsResetBetweenInstalls(t *testing.T) {
	root := newAppRoot(t)
	mergePkg := newZip(t, []zipEntry{{name: "file.txt", content: "x"}})

	inst, _ := newInstaller(t)
	require.True(t, inst.Install(context.Background(), mergePkg, root, mergeOpts()))
	assert.NotEmpty(t, inst.Placements())

	replacePkg := newZip(t, []zipEntry{{name: "pkg/a.txt", content: "a"}})
	opts := Options{
		Overwrite:     true,
		InstallPath:   filepath.Join("user", "plugins", "pkg"),
		ExcludeChecks: allChecks,
	}
	require.True(t, inst.Install(context.Background(), replacePkg, root, opts))
	assert.Empty(t, inst.Placements(), "whole-replace installs keep no merge log")
}
