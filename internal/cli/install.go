package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillcms/qpm/internal/config"
	"github.com/quillcms/qpm/internal/installer"
	"github.com/quillcms/qpm/internal/manifest"
)

// defaultExcludeChecks lets destination validation pass for the
// conditions the install options arbitrate themselves: a missing
// destination is the normal fresh-install case, and existing or
// symlinked destinations are decided by --overwrite and
// --ignore-symlinks.
var defaultExcludeChecks = []installer.ErrorKind{
	installer.ErrTargetExists,
	installer.ErrTargetIsSymlink,
	installer.ErrTargetNotFound,
}

func newInstallCmd() *cobra.Command {
	var (
		merge          bool
		overwrite      bool
		ignoreSymlinks bool
		installPath    string
	)

	cmd := &cobra.Command{
		Use:   "install <package.zip> <instance-root>",
		Short: "Install a package archive into a Quill instance",
		Long: `Install extracts a Quill package archive and places it into an
instance. By default the package's top-level directory replaces the
destination wholesale; with --merge, top-level package entries are
merged over the instance root instead, which is how core updates are
applied.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !merge && installPath == "" {
				return fmt.Errorf("--install-path is required unless --merge is set")
			}
			return runInstall(cmd, args[0], args[1], installer.Options{
				Overwrite:      overwrite,
				IgnoreSymlinks: ignoreSymlinks,
				Sophisticated:  merge,
				InstallPath:    installPath,
				ExcludeChecks:  defaultExcludeChecks,
			})
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "merge package entries over the instance instead of replacing a directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", true, "replace the destination if it already exists")
	cmd.Flags().BoolVar(&ignoreSymlinks, "ignore-symlinks", true, "refuse to install over a symlinked destination")
	cmd.Flags().StringVar(&installPath, "install-path", "", "destination relative to the instance root (e.g. user/plugins/gallery)")

	return cmd
}

func runInstall(cmd *cobra.Command, pkgPath, instanceRoot string, opts installer.Options) error {
	ctx := cmd.Context()
	tty := isTerminal(os.Stdout)

	cfg := config.New()
	stagingBase, err := cfg.EnsureCacheDir()
	if err != nil {
		return fmt.Errorf("failed to prepare staging directory: %w", err)
	}

	inst := installer.New(stagingBase)
	if !inst.Install(ctx, pkgPath, instanceRoot, opts) {
		logger.Error().
			Str("operation", "install").
			Str("package", pkgPath).
			Str("error_code", inst.LastErrorCode().String()).
			Msg("install failed")
		return fmt.Errorf("install failed: %s", inst.LastErrorMessage())
	}

	installedTo := inst.Result().Path
	fmt.Fprintln(cmd.OutOrStdout(), render(successStyle, "Installed", tty), pkgPath, "->", installedTo)

	if opts.Sophisticated {
		printPlacements(cmd, inst.Placements(), tty)
	}

	checkCompatibility(cmd, installedTo, instanceRoot, tty)
	return nil
}

// printPlacements summarizes the merge outcome log for the user.
func printPlacements(cmd *cobra.Command, placements []installer.PlacementOutcome, tty bool) {
	out := cmd.OutOrStdout()
	for _, p := range placements {
		switch p.Action {
		case installer.ActionFailed:
			fmt.Fprintln(out, " ", render(errorStyle, "failed", tty), p.Entry)
		case installer.ActionSkippedDepth, installer.ActionSkippedLink:
			fmt.Fprintln(out, " ", render(warnStyle, "skipped", tty), p.Entry)
		default:
			fmt.Fprintln(out, " ", render(dimStyle, p.Action, tty), p.Entry)
		}
	}
}

// checkCompatibility warns when the installed package declares a minimum
// app version the instance does not satisfy. Packages without a manifest
// are fine; this is advisory only.
func checkCompatibility(cmd *cobra.Command, installedTo, instanceRoot string, tty bool) {
	man, err := manifest.Load(installedTo)
	if err != nil {
		return
	}

	info, err := manifest.ReadInstanceInfo(instanceRoot)
	if err != nil || info.Version == "" {
		return
	}

	ok, err := man.Compatible(info.Version)
	if err != nil {
		logger.Debug().
			Err(err).
			Str("package", man.Name).
			Msg("could not evaluate package compatibility")
		return
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), render(warnStyle, "Warning:", tty),
			fmt.Sprintf("%s requires Quill %s but this instance is %s",
				man.Name, man.MinAppVersion, info.Version))
	}
}
