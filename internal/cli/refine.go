package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/cache"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/judge"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/ledger"
	"github.com/dup0630/param-ext-mcgill-phac/internal/usecase"
)

var (
	refinePapers string
	refineLedger string
	refineTruth  string
	refineCache  string
)

var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Run one human-judged prompt-refinement iteration",
	Long: `Ask the model for an improved extraction prompt per configured
parameter, grounded in the ledger's graded history, then extract each
paper listed in the ground-truth CSV and suspend for a Success/Fail and
TP/TN/FP/FN judgment. Every judged extraction is appended to the ledger
under a new iteration number.

Examples:
  paramext refine --papers ./papers --truth truth.csv --ledger ledger.csv`,
	RunE: runRefine,
}

func init() {
	refineCmd.Flags().StringVar(&refinePapers, "papers", "", "folder of PDF papers (required)")
	refineCmd.Flags().StringVar(&refineLedger, "ledger", "", "ledger CSV path (required)")
	refineCmd.Flags().StringVar(&refineTruth, "truth", "", "ground-truth CSV path (required)")
	refineCmd.Flags().StringVar(&refineCache, "cache", "text_cache", "directory for cached document text")
	refineCmd.MarkFlagRequired("papers")
	refineCmd.MarkFlagRequired("ledger")
	refineCmd.MarkFlagRequired("truth")
	rootCmd.AddCommand(refineCmd)
}

func runRefine(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.ValidateRefine(); err != nil {
		return err
	}

	preamble, err := os.ReadFile(cfg.Refine.PreambleFile)
	if err != nil {
		return fmt.Errorf("failed to read preamble file %s: %w", cfg.Refine.PreambleFile, err)
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

	led, err := ledger.Open(refineLedger)
	if err != nil {
		return err
	}
	texts, err := cache.NewTextCache(refineCache)
	if err != nil {
		return err
	}

	targets := make([]usecase.RefineTarget, len(cfg.Refine.Parameters))
	for i, p := range cfg.Refine.Parameters {
		targets[i] = usecase.RefineTarget{Column: p.Column, Parameter: p.Parameter}
	}

	uc := usecase.NewRefineUseCase(
		analyzer,
		llm,
		led,
		judge.NewConsoleJudge(os.Stdin, os.Stdout),
		texts,
		usecase.RefineOptions{
			PapersDir: refinePapers,
			Preamble:  strings.TrimSpace(string(preamble)),
			TextLimit: cfg.Refine.TextLimit,
			Targets:   targets,
			Verbose:   cfg.Logging.Verbose,
		},
	)

	fmt.Printf("\nStarting Iteration %d...\n\n", led.NextIteration())
	result, err := uc.Run(refineTruth)
	if err != nil {
		return fmt.Errorf("refinement failed: %w", err)
	}

	fmt.Printf("\nIteration %d complete:\n", result.Iteration)
	fmt.Printf("  Records added: %d\n", result.RecordsAdded)

	printWarnings(result.Errors)

	fmt.Printf("\nLedger stored at: %s\n", refineLedger)
	return nil
}
