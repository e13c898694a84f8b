package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dup0630/param-ext-mcgill-phac/internal/usecase"
)

var (
	cfrPapers string
	cfrTruth  string
	cfrOutput string
)

var cfrCmd = &cobra.Command{
	Use:   "cfr",
	Short: "Run the hospitalized-CFR extraction over pre-extracted texts",
	Long: `Run the CFR-specific double extraction over paper folders holding
pre-extracted text and table files ({id}/{id}.txt, {id}/{id}.csv). Each
paper gets one free-form call, whose reply must end with an
"Overall Hospitalized CFR: <value>" line, and one standard-format call
parsed into fixed columns with a recalculated CFR.

With --truth, only the papers listed in the ground-truth CSV are
processed and their true CFR is carried into cfr_raw.csv; without it,
every subdirectory of --papers is processed.

Examples:
  paramext cfr --papers ./papers --truth sampled.csv --output ./results
  paramext cfr --papers ./papers --output ./results`,
	RunE: runCFR,
}

func init() {
	cfrCmd.Flags().StringVar(&cfrPapers, "papers", "", "folder of per-paper text/table directories (required)")
	cfrCmd.Flags().StringVar(&cfrTruth, "truth", "", "ground-truth CSV; empty processes every paper directory")
	cfrCmd.Flags().StringVar(&cfrOutput, "output", ".", "output directory")
	cfrCmd.MarkFlagRequired("papers")
	rootCmd.AddCommand(cfrCmd)
}

func runCFR(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	llm, err := newLLM(cfg)
	if err != nil {
		return fmt.Errorf("failed to create chat client: %w", err)
	}

	uc := usecase.NewCFRUseCase(llm, usecase.CFROptions{
		PapersDir:        cfrPapers,
		ExtractionPrompt: cfg.CFR.ExtractionPrompt,
		StandardPrompt:   cfg.CFR.StandardPrompt,
		TableLimit:       cfg.CFR.TableLimit,
		TextLimit:        cfg.CFR.TextLimit,
		Verbose:          cfg.Logging.Verbose,
	})

	var result *usecase.CFRResult
	if cfrTruth != "" {
		result, err = uc.RunSampled(cfrTruth, newProgressBar("Extracting"))
	} else {
		result, err = uc.RunAll(newProgressBar("Extracting"))
	}
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if err := os.MkdirAll(cfrOutput, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	rawPath := filepath.Join(cfrOutput, "cfr_raw.csv")
	if err := result.Raw.WriteCSV(rawPath); err != nil {
		return err
	}
	standardPath := filepath.Join(cfrOutput, "cfr_standard.csv")
	if err := result.Standard.WriteCSV(standardPath); err != nil {
		return err
	}

	fmt.Printf("\nExtraction complete:\n")
	fmt.Printf("  Papers processed: %d\n", result.Processed)
	fmt.Printf("  Papers skipped:   %d\n", result.Skipped)

	printWarnings(result.Errors)

	fmt.Printf("\nRaw responses stored at: %s\n", rawPath)
	fmt.Printf("Standard format stored at: %s\n", standardPath)
	return nil
}
