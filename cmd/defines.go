package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/SamuelMarks/cdd-c-sub002/pkg/preprocessor"
)

var definesCmd = &cobra.Command{
	Use:   "defines [file]",
	Short: "List the macros a C source file defines",
	Long: `Scan a C source file for #define directives and list the resulting
macro catalog: object-like and function-like names, parameter lists and
variadic markers. Scanning records shapes only; macro bodies are not
captured.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Verbose)

		cat := preprocessor.NewCatalog()
		cat.SetLogger(logger)
		if err := cat.ScanDefines(filename); err != nil {
			return fmt.Errorf("scan %s: %w", filename, err)
		}

		switch cfg.Format {
		case "json":
			return definesJSON(filename, cat.Macros())
		case "table":
			return definesTable(cat.Macros())
		default:
			return definesHuman(filename, cat.Macros())
		}
	},
}

func init() {
	definesCmd.Flags().StringP("format", "f", "", "Output format (human, json, table)")
}

func definesJSON(filename string, macros []preprocessor.Macro) error {
	type jsonMacro struct {
		Name         string   `json:"name"`
		FunctionLike bool     `json:"functionLike"`
		Variadic     bool     `json:"variadic,omitempty"`
		Params       []string `json:"params,omitempty"`
	}

	rows := make([]jsonMacro, 0, len(macros))
	for _, m := range macros {
		rows = append(rows, jsonMacro{
			Name:         m.Name,
			FunctionLike: m.FunctionLike,
			Variadic:     m.Variadic,
			Params:       m.Params,
		})
	}

	output := map[string]interface{}{
		"file":   filename,
		"macros": rows,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func definesTable(macros []preprocessor.Macro) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Kind", "Parameters", "Variadic"})

	for _, m := range macros {
		kind := "object"
		if m.FunctionLike {
			kind = "function"
		}
		t.AppendRow(table.Row{m.Name, kind, strings.Join(m.Params, ", "), m.Variadic})
	}
	t.Render()
	fmt.Printf("(%d macros)\n", len(macros))
	return nil
}

func definesHuman(filename string, macros []preprocessor.Macro) error {
	fmt.Printf("Defines in: %s\n", filename)
	fmt.Printf("=====================================\n\n")

	objectCount := 0
	functionCount := 0
	for _, m := range macros {
		if m.FunctionLike {
			functionCount++
			variadic := ""
			if m.Variadic {
				variadic = " [variadic]"
			}
			fmt.Printf("  %s(%s)%s\n", m.Name, strings.Join(m.Params, ", "), variadic)
		} else {
			objectCount++
			fmt.Printf("  %s\n", m.Name)
		}
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("--------\n")
	fmt.Printf("Total macros: %d\n", len(macros))
	fmt.Printf("Object-like: %d\n", objectCount)
	fmt.Printf("Function-like: %d\n", functionCount)
	return nil
}
