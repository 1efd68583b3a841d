package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/vizprep-cli/internal/app"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			list, err := a.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "(no projects)")
				return nil
			}
			for _, p := range list {
				line := fmt.Sprintf("- %s", p.Name)
				if p.Metadata != nil {
					line += fmt.Sprintf(" (%d rows × %d columns)", p.Metadata.Rows, p.Metadata.Cols)
				}
				if p.Description != "" {
					line += ": " + p.Description
				}
				fmt.Fprintln(out, line)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
