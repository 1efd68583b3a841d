package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/vizprep-cli/internal/app"
	"github.com/KaramelBytes/vizprep-cli/internal/utils"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Write the current snapshot as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			if exportOut == "" || exportOut == "-" {
				return a.Export(cmd.Context(), args[0], cmd.OutOrStdout())
			}
			var buf bytes.Buffer
			if err := a.Export(cmd.Context(), args[0], &buf); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(exportOut, buf.Bytes()); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %s to %s\n", args[0], exportOut)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
}
