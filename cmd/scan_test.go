package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelMarks/cdd-c-sub002/pkg/config"
	"github.com/SamuelMarks/cdd-c-sub002/pkg/preprocessor"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestCommandWiring(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"scan", "defines", "eval", "init", "version"} {
		if !names[want] {
			t.Errorf("Expected root command to have %q subcommand", want)
		}
	}

	for _, flag := range []string{"include-dir", "define", "format", "watch"} {
		if scanCmd.Flags().Lookup(flag) == nil {
			t.Errorf("Expected scan command to have --%s flag", flag)
		}
	}
	for _, flag := range []string{"include-dir", "define", "defines-from"} {
		if evalCmd.Flags().Lookup(flag) == nil {
			t.Errorf("Expected eval command to have --%s flag", flag)
		}
	}
}

func TestBuildCatalog(t *testing.T) {
	cfg := &config.Config{
		IncludeDirs: []string{"/cfg/include"},
		Defines:     map[string]string{"B": "2", "A": "1"},
	}

	cat, err := buildCatalog(cfg, []string{"/flag/include"}, []string{"C=3", "D"}, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"/cfg/include", "/flag/include"}, cat.SearchPaths())

	// Config defines come first in sorted name order, flag defines after
	// in the order given.
	var names []string
	for _, m := range cat.Macros() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, names)

	require.NotNil(t, cat.Lookup("C"))
	assert.Equal(t, "3", cat.Lookup("C").Value)
	require.NotNil(t, cat.Lookup("D"))
	assert.Empty(t, cat.Lookup("D").Value)
}

func TestBuildCatalogBadDefine(t *testing.T) {
	cfg := &config.Config{}
	_, err := buildCatalog(cfg, nil, []string{"=1"}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `define "=1"`)
}

func TestScanFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "util.h", "int util(void);\n")
	a := writeTestFile(t, dir, "a.c", "#ifdef FLAG\n#include \"util.h\"\n#endif\n")
	b := writeTestFile(t, dir, "b.c", "#include \"util.h\"\n#include \"missing.h\"\n")

	reports, err := scanFiles(context.Background(), scanInputs{
		files:   []string{a, b},
		defines: []string{"FLAG"},
	}, discardLogger())
	require.NoError(t, err)

	require.Len(t, reports, 2)
	assert.Equal(t, a, reports[0].File)
	assert.Equal(t, b, reports[1].File)
	require.Len(t, reports[0].Includes, 1)
	assert.Equal(t, "util.h", reports[0].Includes[0].Raw)
	// The unresolved include is dropped, not an error.
	require.Len(t, reports[1].Includes, 1)
}

func TestScanFilesReportsFailure(t *testing.T) {
	dir := t.TempDir()
	bad := writeTestFile(t, dir, "bad.c", "\"unterminated\n")

	_, err := scanFiles(context.Background(), scanInputs{
		files: []string{bad},
	}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.c")
}

func TestNewIncludeInfo(t *testing.T) {
	ev := &preprocessor.IncludeEvent{
		Directive: preprocessor.DirectiveEmbed,
		RawPath:   "logo.bin",
		Path:      "/tmp/logo.bin",
		Line:      7,
		Embed: &preprocessor.EmbedParams{
			Limit:    64,
			HasLimit: true,
			Prefix:   "0x00, ",
		},
	}

	info := newIncludeInfo(ev)
	assert.Equal(t, "embed", info.Directive)
	assert.Equal(t, 7, info.Line)
	require.NotNil(t, info.Limit)
	assert.Equal(t, int64(64), *info.Limit)
	assert.Equal(t, "0x00, ", info.Prefix)

	plain := newIncludeInfo(&preprocessor.IncludeEvent{
		Directive: preprocessor.DirectiveInclude,
		RawPath:   "a.h",
		Path:      "/tmp/a.h",
		Line:      1,
	})
	assert.Nil(t, plain.Limit)
}

func TestFormatOperand(t *testing.T) {
	assert.Equal(t, `"util.h"`, formatOperand(includeInfo{Raw: "util.h"}))
	assert.Equal(t, "<stdio.h>", formatOperand(includeInfo{Raw: "stdio.h", System: true}))
}
