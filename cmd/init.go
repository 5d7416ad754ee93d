package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/SamuelMarks/cdd-c-sub002/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Write a starter cddpre.yaml configuration file",
	Long: `Write a commented starter cddpre.yaml into the given directory
(default: the current directory). The file documents the include_dirs,
defines, format and verbose settings that every command reads.

Examples:
  # Initialize the current directory
  cddpre init

  # Initialize a project directory, replacing an existing file
  cddpre init --overwrite src/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var overwrite bool

func init() {
	initCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing cddpre.yaml if present")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) == 1 {
		targetDir = args[0]
	}

	path := filepath.Join(targetDir, "cddpre.yaml")
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%s already exists (use --overwrite to replace it)", path)
	}

	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
