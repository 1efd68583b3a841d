package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/vizprep-cli/internal/app"
	"github.com/KaramelBytes/vizprep-cli/internal/chart"
	"github.com/KaramelBytes/vizprep-cli/internal/utils"
)

var (
	chartMap     map[string]string
	chartColumns string
	chartPath    string
	chartTune    map[string]string
	chartFilters map[string]string
	chartOut     string
	chartJSON    bool
)

var chartCmd = &cobra.Command{
	Use:   "chart <project> <kind>",
	Short: "Generate a chart spec and its analysis",
	Long: `Generate a declarative chart specification for a project.

Columns are bound to roles with --map role=column (x_axis, y_axis, z_axis,
color, size, names, values, time_axis). Multi-column kinds take --columns or
--path as comma separated lists. Tuning knobs go through --tune key=value.
Filters: --filter city=NY|LA keeps listed categories, --filter age=18..65
keeps a numeric range (either bound may be omitted).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := chart.Request{
			ChartKind:        args[1],
			ColumnMapping:    map[string]any{},
			TuningParameters: map[string]any{},
			Filters:          parseFilterFlags(chartFilters),
		}
		for role, col := range chartMap {
			req.ColumnMapping[role] = col
		}
		if list := splitList(chartColumns); len(list) > 0 {
			req.ColumnMapping[chart.RoleColumns] = list
		}
		if list := splitList(chartPath); len(list) > 0 {
			req.ColumnMapping[chart.RolePath] = list
		}
		for k, v := range chartTune {
			req.TuningParameters[k] = v
		}

		return withApp(cmd.Context(), func(a *app.App) error {
			resp, err := a.Charts.Generate(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			b, err := utils.PrettyJSON(resp.ChartData)
			if err != nil {
				return err
			}
			if chartOut != "" {
				if err := utils.SafeWriteFile(chartOut, b); err != nil {
					return fmt.Errorf("write chart: %w", err)
				}
				fmt.Fprintf(out, "✓ Chart written: %s\n", chartOut)
			} else if chartJSON {
				fmt.Fprintln(out, string(b))
			}
			fmt.Fprintf(out, "%s (%d rows)\n\n%s\n", resp.ChartKind, resp.Rows, resp.AnalysisText)
			return nil
		})
	},
}

var chartKindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the supported chart kinds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := chart.Kinds()
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		sort.Strings(names)
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
		return nil
	},
}

func splitList(s string) []any {
	var out []any
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseFilterFlags turns col=a|b into a category list and col=lo..hi into a
// numeric range.
func parseFilterFlags(raw map[string]string) map[string]any {
	out := make(map[string]any, len(raw))
	for col, v := range raw {
		if lo, hi, ok := strings.Cut(v, ".."); ok {
			out[col] = map[string]any{"min": strings.TrimSpace(lo), "max": strings.TrimSpace(hi)}
			continue
		}
		parts := strings.Split(v, "|")
		vals := make([]any, 0, len(parts))
		for _, p := range parts {
			vals = append(vals, strings.TrimSpace(p))
		}
		out[col] = vals
	}
	return out
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.AddCommand(chartKindsCmd)
	chartCmd.Flags().StringToStringVar(&chartMap, "map", nil, "role=column binding (repeatable)")
	chartCmd.Flags().StringVar(&chartColumns, "columns", "", "comma separated columns for heatmap, pair_plot, parallel_coordinates")
	chartCmd.Flags().StringVar(&chartPath, "path", "", "comma separated hierarchy for sunburst_chart and treemap")
	chartCmd.Flags().StringToStringVar(&chartTune, "tune", nil, "tuning knob key=value (repeatable)")
	chartCmd.Flags().StringToStringVar(&chartFilters, "filter", nil, "column filter (repeatable)")
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "", "write chart data JSON to this file")
	chartCmd.Flags().BoolVar(&chartJSON, "json", false, "print chart data JSON to stdout")
}
