package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/vizprep-cli/internal/app"
	"github.com/KaramelBytes/vizprep-cli/internal/cleaning"
	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
)

var (
	imputeMethod   string
	imputeConstant string
	recodeMap      map[string]string
	outlierMethod  string
)

// applyOp runs one cleaning operation and reports the resynthesized metadata.
func applyOp(cmd *cobra.Command, project string, op cleaning.Operation) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		md, err := a.Cleaning.Apply(cmd.Context(), project, op)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ %s: %s (%d rows × %d columns)\n", project, cleaning.Describe(op), md.Rows, md.Cols)
		printColumns(out, md)
		return nil
	})
}

var imputeCmd = &cobra.Command{
	Use:   "impute <project> <column>...",
	Short: "Fill missing values (mean, median, mode or constant)",
	Long: `Fill missing values in one or more columns. Several columns are imputed
as a single operation: either every column is filled or nothing is saved.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var constant any
		if cmd.Flags().Changed("constant") {
			constant = imputeConstant
		}
		method := cleaning.ImputeMethod(strings.ToLower(imputeMethod))
		ops := make([]cleaning.Impute, 0, len(args)-1)
		for _, col := range args[1:] {
			ops = append(ops, cleaning.Impute{Column: col, Method: method, Constant: constant})
		}
		var op cleaning.Operation = ops[0]
		if len(ops) > 1 {
			op = cleaning.Batch{Imputations: ops}
		}
		return applyOp(cmd, args[0], op)
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop <project> <column>",
	Short: "Remove a column",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyOp(cmd, args[0], cleaning.RemoveColumn{Column: args[1]})
	},
}

var recodeCmd = &cobra.Command{
	Use:   "recode <project> <column>",
	Short: "Replace values using --map old=new pairs",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(recodeMap) == 0 {
			return fmt.Errorf("at least one --map old=new pair is required")
		}
		return applyOp(cmd, args[0], cleaning.Recode{Column: args[1], ValueMap: recodeMap})
	},
}

var outliersCmd = &cobra.Command{
	Use:   "outliers",
	Short: "Detect or treat outliers with the 1.5×IQR rule",
}

var outliersDetectCmd = &cobra.Command{
	Use:   "detect <project> <column>",
	Short: "Report values outside the IQR fences",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			r, err := a.Cleaning.DetectOutliers(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Column: %s\n", r.Column)
			fmt.Fprintf(out, "Q1: %s  Q3: %s  IQR: %s\n", dataset.FormatFloat(r.Q1), dataset.FormatFloat(r.Q3), dataset.FormatFloat(r.IQR))
			fmt.Fprintf(out, "Bounds: [%s, %s]\n", dataset.FormatFloat(r.LowerBound), dataset.FormatFloat(r.UpperBound))
			fmt.Fprintf(out, "Outliers: %d\n", r.Count)
			if len(r.SampleOutliers) > 0 {
				samples := make([]string, len(r.SampleOutliers))
				for i, v := range r.SampleOutliers {
					samples[i] = dataset.FormatFloat(v)
				}
				fmt.Fprintf(out, "Sample: %s\n", strings.Join(samples, ", "))
			}
			return nil
		})
	},
}

var outliersTreatCmd = &cobra.Command{
	Use:   "treat <project> <column>",
	Short: "Remove rows with outliers or cap them at the fences",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		op := cleaning.TreatOutliers{Column: args[1], Method: cleaning.OutlierMethod(strings.ToLower(outlierMethod))}
		return applyOp(cmd, args[0], op)
	},
}

func init() {
	rootCmd.AddCommand(imputeCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(recodeCmd)
	rootCmd.AddCommand(outliersCmd)
	outliersCmd.AddCommand(outliersDetectCmd)
	outliersCmd.AddCommand(outliersTreatCmd)

	imputeCmd.Flags().StringVarP(&imputeMethod, "method", "m", "mean", "mean, median, mode or constant")
	imputeCmd.Flags().StringVar(&imputeConstant, "constant", "", "fill value for --method constant")
	recodeCmd.Flags().StringToStringVar(&recodeMap, "map", nil, "old=new replacement (repeatable)")
	outliersTreatCmd.Flags().StringVarP(&outlierMethod, "method", "m", "cap", "remove or cap")
}
