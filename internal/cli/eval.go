package cli

import (
	"fmt"
	"math"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/ledger"
	"github.com/dup0630/param-ext-mcgill-phac/internal/usecase"
)

var (
	evalLedger    string
	evalIteration int
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a refinement iteration from the ledger",
	Long: `Print the confusion matrix and derived metrics for one iteration of
the refinement ledger, plus the papers whose success label flipped since
the previous iteration.

Examples:
  paramext eval --ledger ledger.csv                # latest iteration
  paramext eval --ledger ledger.csv --iteration 2`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalLedger, "ledger", "", "ledger CSV path (required)")
	evalCmd.Flags().IntVar(&evalIteration, "iteration", 0, "iteration to evaluate (default latest)")
	evalCmd.MarkFlagRequired("ledger")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	led, err := ledger.Open(evalLedger)
	if err != nil {
		return err
	}

	iteration := evalIteration
	if iteration <= 0 {
		iteration = led.NextIteration() - 1
		if iteration < 1 {
			return fmt.Errorf("ledger %s is empty", evalLedger)
		}
	}

	result, err := usecase.NewEvaluateUseCase(led).Evaluate(iteration)
	if err != nil {
		return err
	}

	fmt.Printf("Iteration %d (%d records)\n\n", result.Iteration, result.Counts.Total())

	matrix := table.NewWriter()
	matrix.SetOutputMirror(os.Stdout)
	matrix.SetStyle(table.StyleRounded)
	matrix.AppendHeader(table.Row{"", "Predicted Positive", "Predicted Negative"})
	matrix.AppendRow(table.Row{"Actual Positive", result.Counts.TP, result.Counts.FN})
	matrix.AppendRow(table.Row{"Actual Negative", result.Counts.FP, result.Counts.TN})
	matrix.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	matrix.Render()

	metrics := table.NewWriter()
	metrics.SetOutputMirror(os.Stdout)
	metrics.SetStyle(table.StyleRounded)
	metrics.AppendHeader(table.Row{"Metric", "Value"})
	metrics.AppendRow(table.Row{"Sensitivity", formatMetric(result.Metrics.Sensitivity)})
	metrics.AppendRow(table.Row{"Specificity", formatMetric(result.Metrics.Specificity)})
	metrics.AppendRow(table.Row{"Precision", formatMetric(result.Metrics.Precision)})
	metrics.AppendRow(table.Row{"Accuracy", formatMetric(result.Metrics.Accuracy)})
	metrics.AppendRow(table.Row{"F1", formatMetric(result.Metrics.F1)})
	metrics.AppendRow(table.Row{"MCC", formatMetric(result.Metrics.MCC)})
	metrics.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	metrics.Render()

	if !result.Compared {
		fmt.Printf("\nNo records for iteration %d; transitions not computed.\n", iteration-1)
		return nil
	}

	fmt.Printf("\nFail -> Success (%d):\n", len(result.FailToSuccess))
	for _, paper := range result.FailToSuccess {
		fmt.Printf("  - %s\n", paper)
	}
	fmt.Printf("\nSuccess -> Fail (%d):\n", len(result.SuccessToFail))
	for _, paper := range result.SuccessToFail {
		fmt.Printf("  - %s\n", paper)
	}
	return nil
}

// formatMetric renders an undefined ratio as a dash instead of NaN.
func formatMetric(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4f", v)
}
