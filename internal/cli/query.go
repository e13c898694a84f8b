package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/vectorstore"
)

var (
	querySnapshot string
	queryPaper    string
	queryTopK     int
)

var queryCmd = &cobra.Command{
	Use:   "query [text...]",
	Short: "Query an index snapshot",
	Long: `Search a saved index snapshot for the chunks of one paper closest to
the query text. Useful for inspecting what the extraction pipeline would
retrieve for a parameter.

Examples:
  paramext query --snapshot index.vecgo --paper smith2019.pdf "case fatality rate"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&querySnapshot, "snapshot", "", "index snapshot path (required)")
	queryCmd.Flags().StringVar(&queryPaper, "paper", "", "paper id to search within (required)")
	queryCmd.Flags().IntVar(&queryTopK, "k", 5, "number of chunks to return")
	queryCmd.MarkFlagRequired("snapshot")
	queryCmd.MarkFlagRequired("paper")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	collection, err := vectorstore.OpenSnapshot(embedder, querySnapshot)
	if err != nil {
		return err
	}

	queryText := strings.Join(args, " ")
	results, err := collection.Query([]string{queryText}, queryPaper, queryTopK)
	if err != nil {
		return err
	}

	hits := results[0]
	if len(hits) == 0 {
		fmt.Printf("No chunks found for paper %s\n", queryPaper)
		return nil
	}

	fmt.Printf("Top %d chunks for %q in %s:\n", len(hits), queryText, queryPaper)
	for i, hit := range hits {
		fmt.Printf("\n%d. [score %.4f] section %d\n", i+1, hit.Score, hit.Chunk.Index)
		text := strings.TrimSpace(hit.Chunk.Text)
		fmt.Println(text)
	}
	return nil
}
