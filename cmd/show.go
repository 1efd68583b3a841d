package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/vizprep-cli/internal/app"
	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/utils"
)

var (
	showJSON    bool
	deleteForce bool
)

var showCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Show project metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			p, err := a.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if showJSON {
				b, err := utils.PrettyJSON(p)
				if err != nil {
					return err
				}
				_, err = out.Write(append(b, '\n'))
				return err
			}
			fmt.Fprintf(out, "Project: %s\n", p.Name)
			if p.Description != "" {
				fmt.Fprintf(out, "Description: %s\n", p.Description)
			}
			if p.Source != nil {
				fmt.Fprintf(out, "Source: %s (%s, %d bytes)\n", p.Source.Name, p.Source.Format, p.Source.Bytes)
			}
			fmt.Fprintf(out, "Updated: %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Shape: %d rows × %d columns\n", p.Metadata.Rows, p.Metadata.Cols)
			printColumns(out, p.Metadata)
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <project>",
	Short: "Delete a project and its snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !deleteForce && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete project %q?", name)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			if err := a.Delete(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Project deleted: %s\n", name)
			return nil
		})
	},
}

func printColumns(out io.Writer, md *dataset.Metadata) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tUNIQUE\tMISSING")
	for _, c := range md.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", c.Name, c.Type, c.UniqueValues, c.MissingCount)
	}
	_ = tw.Flush()
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the full project record as JSON")
	deleteCmd.Flags().BoolVarP(&deleteForce, "yes", "y", false, "do not ask for confirmation")
}
