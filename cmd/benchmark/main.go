package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dup0630/param-ext-mcgill-phac/config"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/embedding"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/vectorstore"
	"github.com/dup0630/param-ext-mcgill-phac/internal/port"
)

func main() {
	snapshot := flag.String("snapshot", "", "Path to an index snapshot")
	paperID := flag.String("paper", "", "Paper id to search within")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 5, "Number of results")
	cfgPath := flag.String("config", "", "Config file (default ./paramext.yaml)")
	flag.Parse()

	if *snapshot == "" || *paperID == "" || *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -snapshot index.vecgo -paper smith2019.pdf -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (model connection, snapshot load)")
		fmt.Println("  2. Retrieval latency (embed + search)")
		fmt.Println("  3. Semantic match quality against one paper's chunks")
		os.Exit(1)
	}

	var cfg *config.Config
	var err error
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
	} else {
		wd, _ := os.Getwd()
		cfg, err = config.LoadFromDir(wd)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	embedder, err := setupEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}

	collection, err := vectorstore.OpenSnapshot(embedder, *snapshot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening snapshot: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Snapshot: %s\n", *snapshot)
	fmt.Printf("Model: %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\" (paper %s)\n", *query, *paperID)
	fmt.Println(strings.Repeat("-", 70))

	start := time.Now()
	results, err := collection.Query([]string{*query}, *paperID, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	hits := results[0]
	if len(hits) == 0 {
		fmt.Printf("No chunks indexed for paper %s\n", *paperID)
		os.Exit(1)
	}

	fmt.Printf("Embed + search: %s\n\n", elapsed)
	fmt.Printf("Top %d matches:\n\n", len(hits))

	totalScore := 0.0
	for i, hit := range hits {
		preview := hit.Chunk.Text
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")

		distance := float64(hit.Score)
		totalScore += distance

		rating := "LOW"
		if distance < 0.3 {
			rating = "HIGH"
		} else if distance < 0.5 {
			rating = "GOOD"
		} else if distance < 0.7 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] section %d\n", i+1, rating, distance, hit.Chunk.Index)
		fmt.Printf("   %s\n\n", preview)
	}

	avgScore := totalScore / float64(len(hits))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average distance: %.3f\n", avgScore)
	fmt.Printf("  Top-1 distance:   %.3f\n", float64(hits[0].Score))

	if avgScore < 0.5 {
		fmt.Println("  Status: GOOD - retrieval working well")
	} else if avgScore < 0.7 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - may need a different embedding model or re-indexing")
	}
}

func setupEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "azure", "":
		return embedding.NewAzureEmbedder(embedding.AzureOptions{
			Endpoint:          cfg.Embedding.ResolveEndpoint(),
			APIVersion:        cfg.Embedding.ResolveAPIVersion(),
			APIKeyEnv:         cfg.Embedding.APIKeyEnv,
			Model:             cfg.Embedding.Model,
			Dimension:         cfg.Embedding.Dimension,
			BatchSize:         cfg.Embedding.BatchSize,
			Timeout:           time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
			RequestsPerMinute: cfg.Embedding.RequestsPerMinute,
		})
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Embedding.Provider)
	}
}
