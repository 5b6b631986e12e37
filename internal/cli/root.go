// Package cli wires the qpm commands.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the qpm CLI. It wires up
// logging and the install/validate subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *loggingResult

	cmd := &cobra.Command{
		Use:     "qpm",
		Short:   "Quill package manager",
		Long:    "qpm installs Quill package archives into a Quill instance",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.AddCommand(newInstallCmd(), newValidateCmd(), newVersionCmd(ver))

	return cmd
}

const rootCmdExample = `  # Install a plugin package into an instance
  qpm install gallery.zip /srv/quill --install-path user/plugins/gallery

  # Merge a core update over an instance
  qpm install quill-update.zip /srv/quill --merge

  # Check that a directory is a Quill instance
  qpm validate /srv/quill`
