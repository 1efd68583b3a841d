package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/vizprep-cli/internal/app"
	"github.com/KaramelBytes/vizprep-cli/internal/ingest"
)

var (
	importName        string
	importDescription string
	importSheet       string
	importMaxRows     int
	importLocaleNums  bool
	importDelimiter   string
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create a project from a CSV, TSV, JSON, XLSX or Arrow file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		name := importName
		if name == "" {
			base := filepath.Base(path)
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		opt := ingest.Options{Sheet: importSheet, MaxRows: importMaxRows, LocaleNumbers: importLocaleNums}
		if importDelimiter != "" {
			d := []rune(importDelimiter)
			if importDelimiter == `\t` {
				d = []rune{'\t'}
			}
			if len(d) != 1 {
				return fmt.Errorf("--delimiter must be a single character")
			}
			opt.Delimiter = d[0]
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			if _, err := ingest.Detect(path); err != nil {
				return err
			}
			f, err := openInput(path)
			if err != nil {
				return err
			}
			defer f.Close()
			p, err := a.Import(cmd.Context(), name, importDescription, path, f, opt)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Project created: %s (%d rows × %d columns)\n", p.Name, p.Metadata.Rows, p.Metadata.Cols)
			printColumns(out, p.Metadata)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importName, "name", "n", "", "project name (default: file name without extension)")
	importCmd.Flags().StringVarP(&importDescription, "desc", "d", "", "project description")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX worksheet name (default: first sheet)")
	importCmd.Flags().IntVar(&importMaxRows, "max-rows", 0, "limit rows read (0 = all)")
	importCmd.Flags().BoolVar(&importLocaleNums, "locale-numbers", false, `accept "1.234,5" style numbers and percentages`)
	importCmd.Flags().StringVar(&importDelimiter, "delimiter", "", `field delimiter for delimited text (e.g. ";" or "\t")`)
}
