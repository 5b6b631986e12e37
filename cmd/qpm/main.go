// Command qpm installs Quill package archives into Quill instances.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/quillcms/qpm/internal/cli"
	"github.com/quillcms/qpm/pkg/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := cli.NewRootCmd(version.GetVersion())
	return rootCmd.ExecuteContext(context.Background())
}
