package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/fs"
	"github.com/dup0630/param-ext-mcgill-phac/internal/usecase"
)

var (
	twoStageFolder       string
	twoStageOutput       string
	twoStageExplanations bool
)

var twoStageCmd = &cobra.Command{
	Use:   "twostage",
	Short: "Run the full-text two-stage extraction pipeline",
	Long: `Send each paper's full layout text, tables included, through the
two-pass prompt chain without any retrieval. Results land in
twostage_results.csv with one row per paper.

Examples:
  paramext twostage --folder ./papers --output ./results`,
	RunE: runTwoStage,
}

func init() {
	twoStageCmd.Flags().StringVar(&twoStageFolder, "folder", "", "folder of PDF papers (required)")
	twoStageCmd.Flags().StringVar(&twoStageOutput, "output", ".", "output directory")
	twoStageCmd.Flags().BoolVar(&twoStageExplanations, "explanations", true, "write first-pass replies to explanations.txt")
	twoStageCmd.MarkFlagRequired("folder")
	rootCmd.AddCommand(twoStageCmd)
}

func runTwoStage(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.ValidateTwoStage(); err != nil {
		return err
	}

	llm, err := newLLM(cfg)
	if err != nil {
		return fmt.Errorf("failed to create chat client: %w", err)
	}
	analyzer, closeAnalyzer, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}
	defer closeAnalyzer()

	uc := usecase.NewTwoStageUseCase(
		fs.NewWalker(nil, nil),
		analyzer,
		llm,
		usecase.TwoStageOptions{
			SystemPrompt: cfg.Prompts.System,
			RefinePrompt: cfg.Prompts.Refine,
			Parameters:   configParameters(cfg),
			Verbose:      cfg.Logging.Verbose,
		},
	)

	fmt.Printf("Scanning %s...\n", twoStageFolder)
	result, err := uc.Run(twoStageFolder, newProgressBar("Extracting"))
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if err := os.MkdirAll(twoStageOutput, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	resultsPath := filepath.Join(twoStageOutput, "twostage_results.csv")
	if err := result.Table.WriteCSV(resultsPath); err != nil {
		return err
	}

	explanationsPath := ""
	if twoStageExplanations && len(result.Explanations) > 0 {
		explanationsPath = filepath.Join(twoStageOutput, "explanations.txt")
		if err := usecase.WriteExplanations(explanationsPath, result.Explanations); err != nil {
			return err
		}
	}

	fmt.Printf("\nExtraction complete:\n")
	fmt.Printf("  Files processed: %d\n", result.FilesProcessed)

	printWarnings(result.Errors)

	fmt.Printf("\nResults stored at: %s\n", resultsPath)
	if explanationsPath != "" {
		fmt.Printf("Explanations stored at: %s\n", explanationsPath)
	}
	return nil
}
