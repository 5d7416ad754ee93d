package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/SamuelMarks/cdd-c-sub002/pkg/config"
	"github.com/SamuelMarks/cdd-c-sub002/pkg/preprocessor"
)

var scanCmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "Report the includes and embeds that survive conditional compilation",
	Long: `Scan C source files for #include and #embed directives. Regions
disabled by #if/#ifdef/#elif/#else nesting are skipped, conditions are
evaluated against the macro catalog, and each surviving operand is
resolved against the include search path. Directives whose operands do
not resolve to an existing file are omitted from the report.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Verbose)

		includeDirs, _ := cmd.Flags().GetStringArray("include-dir")
		defines, _ := cmd.Flags().GetStringArray("define")
		watch, _ := cmd.Flags().GetBool("watch")

		run := func(ctx context.Context) ([]fileReport, error) {
			return scanFiles(ctx, scanInputs{
				files:       args,
				includeDirs: includeDirs,
				defines:     defines,
				cfgDirs:     cfg.IncludeDirs,
				cfgDefines:  cfg.Defines,
			}, logger)
		}

		reports, err := run(cmd.Context())
		if err != nil {
			return err
		}
		if err := renderReports(reports, cfg.Format); err != nil {
			return err
		}

		if !watch {
			return nil
		}
		return watchAndRescan(cmd.Context(), args, cfg.Format, run, logger)
	},
}

func init() {
	scanCmd.Flags().StringArrayP("include-dir", "I", nil, "Add an include search directory (repeatable)")
	scanCmd.Flags().StringArrayP("define", "D", nil, "Predefine a macro as NAME or NAME=VALUE (repeatable)")
	scanCmd.Flags().StringP("format", "f", "", "Output format (human, json, table)")
	scanCmd.Flags().Bool("watch", false, "Rescan whenever a scanned file changes")
}

// scanInputs carries everything needed to rebuild a catalog per scan.
type scanInputs struct {
	files       []string
	includeDirs []string
	defines     []string
	cfgDirs     []string
	cfgDefines  map[string]string
}

// fileReport is the scan outcome for one file.
type fileReport struct {
	File     string        `json:"file"`
	Includes []includeInfo `json:"includes"`
}

// includeInfo is one surviving directive in a report.
type includeInfo struct {
	Directive string `json:"directive"`
	Raw       string `json:"raw"`
	Path      string `json:"path"`
	System    bool   `json:"system,omitempty"`
	Line      int    `json:"line"`
	Limit     *int64 `json:"limit,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	Suffix    string `json:"suffix,omitempty"`
	IfEmpty   string `json:"ifEmpty,omitempty"`
}

// scanFiles scans every file concurrently. Each goroutine builds its own
// catalog; catalogs are not safe for concurrent use and the scans must
// not observe each other's registrations.
func scanFiles(ctx context.Context, in scanInputs, logger *slog.Logger) ([]fileReport, error) {
	cfg := &config.Config{IncludeDirs: in.cfgDirs, Defines: in.cfgDefines}

	g, ctx := errgroup.WithContext(ctx)
	reports := make([]fileReport, len(in.files))
	for i, file := range in.files {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			cat, err := buildCatalog(cfg, in.includeDirs, in.defines, logger)
			if err != nil {
				return err
			}

			report := fileReport{File: file}
			err = cat.ScanIncludes(file, func(ev *preprocessor.IncludeEvent) bool {
				report.Includes = append(report.Includes, newIncludeInfo(ev))
				return false
			})
			if err != nil {
				return fmt.Errorf("scan %s: %w", file, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// newIncludeInfo copies the transient event into a report row.
func newIncludeInfo(ev *preprocessor.IncludeEvent) includeInfo {
	info := includeInfo{
		Directive: ev.Directive.String(),
		Raw:       ev.RawPath,
		Path:      ev.Path,
		System:    ev.System,
		Line:      ev.Line,
	}
	if ev.Embed != nil {
		if ev.Embed.HasLimit {
			limit := ev.Embed.Limit
			info.Limit = &limit
		}
		info.Prefix = ev.Embed.Prefix
		info.Suffix = ev.Embed.Suffix
		info.IfEmpty = ev.Embed.IfEmpty
	}
	return info
}

func renderReports(reports []fileReport, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(reports)
	case "table":
		return renderTable(reports)
	default:
		return renderHuman(reports)
	}
}

func renderHuman(reports []fileReport) error {
	for _, report := range reports {
		fmt.Printf("Scanned file: %s\n", report.File)
		fmt.Printf("=====================================\n\n")

		for _, inc := range report.Includes {
			fmt.Printf("  line %4d  #%-7s %s\n", inc.Line, inc.Directive, formatOperand(inc))
			fmt.Printf("    Resolved: %s\n", inc.Path)
			if inc.Limit != nil {
				fmt.Printf("    Limit: %d\n", *inc.Limit)
			}
			if inc.Prefix != "" {
				fmt.Printf("    Prefix: %s\n", inc.Prefix)
			}
			if inc.Suffix != "" {
				fmt.Printf("    Suffix: %s\n", inc.Suffix)
			}
			if inc.IfEmpty != "" {
				fmt.Printf("    IfEmpty: %s\n", inc.IfEmpty)
			}
		}

		fmt.Printf("\nSummary:\n")
		fmt.Printf("--------\n")
		fmt.Printf("Surviving directives: %d\n\n", len(report.Includes))
	}
	return nil
}

func renderTable(reports []fileReport) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Line", "Directive", "Operand", "Resolved"})

	rows := 0
	for _, report := range reports {
		for _, inc := range report.Includes {
			t.AppendRow(table.Row{report.File, inc.Line, inc.Directive, formatOperand(inc), inc.Path})
			rows++
		}
	}
	t.Render()
	fmt.Printf("(%d rows)\n", rows)
	return nil
}

// formatOperand renders the operand the way it appeared in source.
func formatOperand(inc includeInfo) string {
	if inc.System {
		return "<" + inc.Raw + ">"
	}
	return "\"" + inc.Raw + "\""
}

// watchAndRescan reruns the scan whenever one of the scanned files
// changes. Parent directories are watched so editors that replace files
// on save still trigger events.
func watchAndRescan(ctx context.Context, files []string, format string, run func(context.Context) ([]fileReport, error), logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	targets := make(map[string]bool)
	for _, f := range files {
		dir := filepath.Dir(f)
		if !watched[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			watched[dir] = true
		}
		targets[filepath.Clean(f)] = true
	}

	fmt.Fprintln(os.Stderr, "Watching for changes (interrupt to stop)")
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			logger.Debug("change detected", "file", event.Name)

			reports, err := run(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			if err := renderReports(reports, format); err != nil {
				return err
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Debug("watcher error", "error", werr)
		}
	}
}
