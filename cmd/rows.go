package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/vizprep-cli/internal/app"
)

var (
	rowsSortKey   string
	rowsDirection string
	rowsLimit     int
)

var rowsCmd = &cobra.Command{
	Use:   "rows <project>",
	Short: "Print snapshot rows as JSON records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			body, err := a.Rows(cmd.Context(), args[0], rowsSortKey, rowsDirection)
			if err != nil {
				return err
			}
			if rowsLimit > 0 {
				var rows []json.RawMessage
				if err := json.Unmarshal(body, &rows); err != nil {
					return err
				}
				if len(rows) > rowsLimit {
					rows = rows[:rowsLimit]
				}
				if body, err = json.Marshal(rows); err != nil {
					return err
				}
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, body, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			return nil
		})
	},
}

var uniqueCmd = &cobra.Command{
	Use:   "unique <project> <column>",
	Short: "List the distinct values of a column",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			vals, err := a.Unique(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, v := range vals {
				fmt.Fprintln(out, v)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(rowsCmd)
	rootCmd.AddCommand(uniqueCmd)
	rowsCmd.Flags().StringVar(&rowsSortKey, "sort-key", "", "column to sort by")
	rowsCmd.Flags().StringVar(&rowsDirection, "sort-direction", "asc", "asc or desc")
	rowsCmd.Flags().IntVar(&rowsLimit, "limit", 0, "print at most N rows (0 = all)")
}
