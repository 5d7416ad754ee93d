package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SamuelMarks/cdd-c-sub002/pkg/lexer"
	"github.com/SamuelMarks/cdd-c-sub002/pkg/preprocessor"
)

var evalCmd = &cobra.Command{
	Use:   "eval [expression]",
	Short: "Evaluate a preprocessor conditional expression",
	Long: `Evaluate a #if-style constant expression against the macro catalog
and print the resulting value. Supports the usual integer operators,
defined, __has_include, __has_embed and __has_c_attribute.

Examples:
  cddpre eval 'VERSION >= 2 && defined(FEATURE_X)' -D VERSION=3 -D FEATURE_X
  cddpre eval '__has_include(<stdio.h>)' -I /usr/include
  cddpre eval 'MAX_LEVEL > 2' --defines-from config.h`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expr := args[0]

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Verbose)

		includeDirs, _ := cmd.Flags().GetStringArray("include-dir")
		defines, _ := cmd.Flags().GetStringArray("define")
		definesFrom, _ := cmd.Flags().GetStringArray("defines-from")

		cat, err := buildCatalog(cfg, includeDirs, defines, logger)
		if err != nil {
			return err
		}
		for _, f := range definesFrom {
			if err := cat.ScanDefines(f); err != nil {
				return fmt.Errorf("scan %s: %w", f, err)
			}
		}

		tokens := lexer.NewTokenizer(expr).Tokenize()

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		res := preprocessor.Resolver{
			CurrentDir: cwd,
			SearchDirs: cat.SearchPaths(),
		}

		value, err := preprocessor.Evaluate(expr, tokens, cat, res)
		if err != nil {
			return fmt.Errorf("evaluate %q: %w", expr, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d\n", value)
		return nil
	},
}

func init() {
	evalCmd.Flags().StringArrayP("include-dir", "I", nil, "Add an include search directory (repeatable)")
	evalCmd.Flags().StringArrayP("define", "D", nil, "Predefine a macro as NAME or NAME=VALUE (repeatable)")
	evalCmd.Flags().StringArray("defines-from", nil, "Scan a file's #define directives into the catalog first (repeatable)")
}
