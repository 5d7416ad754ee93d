package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SamuelMarks/cdd-c-sub002/pkg/config"
	"github.com/SamuelMarks/cdd-c-sub002/pkg/preprocessor"
)

// Version information
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cddpre",
	Short: "A C preprocessor directive scanner",
	Long: `cddpre inspects C sources without running a compiler. It scans
#define directives into a macro catalog, evaluates conditional compilation
expressions, and reports the #include and #embed directives that survive
#if/#ifdef nesting, with each operand resolved against the include search
path.`,
	Version: getVersionString(),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cddpre %s\n", getVersionString())
		fmt.Printf("  Version: %s\n", version)
		fmt.Printf("  Commit:  %s\n", commit)
		fmt.Printf("  Date:    %s\n", date)
	},
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (%s)", version, commit)
	}
	return version
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: cddpre.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(definesCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the command logger. Output goes to stderr so the
// report formats on stdout stay machine readable.
func newLogger(verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// loadConfig reads the merged configuration for a command invocation.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
}

// buildCatalog assembles a macro catalog from the configuration plus the
// repeatable -I and -D flags. Config defines register in sorted name
// order so lookup order stays stable; flag defines follow in the order
// given.
func buildCatalog(cfg *config.Config, includeDirs, defines []string, logger *slog.Logger) (*preprocessor.Catalog, error) {
	cat := preprocessor.NewCatalog()
	cat.SetLogger(logger)

	for _, dir := range cfg.IncludeDirs {
		cat.AddSearchPath(dir)
	}
	for _, dir := range includeDirs {
		cat.AddSearchPath(dir)
	}

	names := make([]string, 0, len(cfg.Defines))
	for name := range cfg.Defines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := cat.AddMacro(name, cfg.Defines[name]); err != nil {
			return nil, fmt.Errorf("config define %q: %w", name, err)
		}
	}

	for _, def := range defines {
		name, value, _ := strings.Cut(def, "=")
		if err := cat.AddMacro(name, value); err != nil {
			return nil, fmt.Errorf("define %q: %w", def, err)
		}
	}
	return cat, nil
}
