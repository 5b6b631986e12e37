package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillcms/qpm/internal/installer"
	"github.com/quillcms/qpm/internal/manifest"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <instance-root>",
		Short: "Check that a directory is a Quill instance",
		Long: `Validate checks the given directory for the markers of a Quill
installation: the entry point, the bin and user directories, and the
system configuration file. When the directory is an instance, its
version and title are printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, root string) error {
	tty := isTerminal(os.Stdout)
	out := cmd.OutOrStdout()

	inst := installer.New("")
	if !inst.IsAppRoot(root) {
		logger.Debug().
			Str("operation", "validate").
			Str("root", root).
			Str("error_code", inst.LastErrorCode().String()).
			Msg("instance validation failed")
		return fmt.Errorf("%s", inst.LastErrorMessage())
	}

	fmt.Fprintln(out, render(successStyle, "Valid Quill instance:", tty), root)

	info, err := manifest.ReadInstanceInfo(root)
	if err != nil {
		logger.Debug().Err(err).Str("root", root).Msg("could not read instance info")
		return nil
	}
	if info.Title != "" {
		fmt.Fprintln(out, render(dimStyle, "  title:", tty), info.Title)
	}
	if info.Version != "" {
		fmt.Fprintln(out, render(dimStyle, "  version:", tty), info.Version)
	}
	return nil
}
