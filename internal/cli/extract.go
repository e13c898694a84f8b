package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/fs"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/vectorstore"
	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
	"github.com/dup0630/param-ext-mcgill-phac/internal/usecase"
)

var (
	extractFolder       string
	extractOutput       string
	extractTopK         int
	extractExplanations bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the retrieval-augmented extraction pipeline",
	Long: `Index every PDF in the folder into an in-memory vector collection,
retrieve the top-K section chunks per parameter for each paper, and run
the two-pass prompt chain. Results land in rag_results.csv with one row
per paper.

Examples:
  paramext extract --folder ./papers --output ./results
  paramext extract --folder ./papers --k 3 --explanations=false`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractFolder, "folder", "", "folder of PDF papers (required)")
	extractCmd.Flags().StringVar(&extractOutput, "output", ".", "output directory")
	extractCmd.Flags().IntVar(&extractTopK, "k", 0, "chunks retrieved per parameter (default from config)")
	extractCmd.Flags().BoolVar(&extractExplanations, "explanations", true, "write first-pass replies to explanations.txt")
	extractCmd.MarkFlagRequired("folder")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.ValidateExtraction(); err != nil {
		return err
	}

	metric, err := domain.ParseDistance(cfg.RAG.Metric)
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
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

	topK := cfg.RAG.TopK
	if extractTopK > 0 {
		topK = extractTopK
	}

	collection := vectorstore.New(embedder)
	uc := usecase.NewExtractUseCase(
		fs.NewWalker(nil, nil),
		analyzer,
		collection,
		llm,
		usecase.ExtractOptions{
			SystemPrompt: cfg.Prompts.RAGSystem,
			RefinePrompt: cfg.Prompts.Refine,
			Parameters:   configParameters(cfg),
			TopK:         topK,
			Metric:       metric,
			Verbose:      cfg.Logging.Verbose,
		},
	)

	fmt.Printf("Scanning %s...\n", extractFolder)
	result, err := uc.Run(extractFolder, newProgressBar("Extracting"))
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if err := os.MkdirAll(extractOutput, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	resultsPath := filepath.Join(extractOutput, "rag_results.csv")
	if err := result.Table.WriteCSV(resultsPath); err != nil {
		return err
	}

	explanationsPath := ""
	if extractExplanations && len(result.Explanations) > 0 {
		explanationsPath = filepath.Join(extractOutput, "explanations.txt")
		if err := usecase.WriteExplanations(explanationsPath, result.Explanations); err != nil {
			return err
		}
	}

	if cfg.RAG.Snapshot != "" {
		if err := collection.SaveToFile(cfg.RAG.Snapshot); err != nil {
			return err
		}
	}

	fmt.Printf("\nExtraction complete:\n")
	fmt.Printf("  Files indexed:   %d\n", result.FilesIndexed)
	fmt.Printf("  Chunks indexed:  %d\n", result.ChunksIndexed)
	fmt.Printf("  Files processed: %d\n", result.FilesProcessed)

	printWarnings(result.Errors)

	fmt.Printf("\nResults stored at: %s\n", resultsPath)
	if explanationsPath != "" {
		fmt.Printf("Explanations stored at: %s\n", explanationsPath)
	}
	if cfg.RAG.Snapshot != "" {
		fmt.Printf("Index snapshot stored at: %s\n", cfg.RAG.Snapshot)
	}
	return nil
}
