package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
	"github.com/dup0630/param-ext-mcgill-phac/internal/port"
)

// ExtractUseCase runs the retrieval-augmented extraction pipeline: every
// document's section chunks are indexed into a freshly reset collection,
// then each document gets its top-K chunks per parameter retrieved and
// fed through the two-pass prompt chain. Indexing of the whole corpus
// completes before any extraction starts.
type ExtractUseCase struct {
	walker   port.FileWalker
	analyzer port.Analyzer
	store    port.VectorStore
	llm      port.LLM
	opts     ExtractOptions
}

// ExtractOptions configures one pipeline run.
type ExtractOptions struct {
	SystemPrompt string
	RefinePrompt string
	Parameters   []domain.Parameter
	TopK         int
	Metric       domain.Distance
	Verbose      bool
}

func NewExtractUseCase(
	walker port.FileWalker,
	analyzer port.Analyzer,
	store port.VectorStore,
	llm port.LLM,
	opts ExtractOptions,
) *ExtractUseCase {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &ExtractUseCase{
		walker:   walker,
		analyzer: analyzer,
		store:    store,
		llm:      llm,
		opts:     opts,
	}
}

// ExtractResult contains the output table and run counters. Documents
// whose extraction failed keep a row of error sentinels so the table has
// one row per corpus member no matter what.
type ExtractResult struct {
	Table          Table
	Explanations   []string
	FilesIndexed   int
	ChunksIndexed  int
	FilesProcessed int
	Errors         []string
}

// Run executes the pipeline over every PDF in folder.
func (u *ExtractUseCase) Run(folder string, progress ProgressFunc) (*ExtractResult, error) {
	if len(u.opts.Parameters) == 0 {
		return nil, fmt.Errorf("no parameters configured")
	}

	files, err := u.walker.Walk(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", folder, err)
	}

	if err := u.store.Reset(u.opts.Metric); err != nil {
		return nil, fmt.Errorf("failed to reset collection: %w", err)
	}

	result := &ExtractResult{}
	result.Table.Columns = resultColumns(u.opts.Parameters)
	total := 2 * len(files)
	step := 0

	// A paper whose analysis or insert failed stays a corpus member; its
	// row is filled with the error sentinel instead of calling the model
	// over context that was never indexed.
	failed := make(map[string]bool)
	papers := make([]string, 0, len(files))

	for _, file := range files {
		paperID := filepath.Base(file.Path)
		papers = append(papers, paperID)
		step++
		if progress != nil {
			progress(step, total, "indexing "+paperID)
		}

		if err := u.indexPaper(paperID, file.Path, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to index %s: %v", paperID, err))
			failed[paperID] = true
			continue
		}
		result.FilesIndexed++
	}

	paramList := renderParameters(u.opts.Parameters)
	queries := make([]string, len(u.opts.Parameters))
	for i, p := range u.opts.Parameters {
		queries[i] = p.String()
	}

	for _, paperID := range papers {
		step++
		if progress != nil {
			progress(step, total, "extracting "+paperID)
		}

		if failed[paperID] {
			result.Table.Rows = append(result.Table.Rows, errorRow(u.opts.Parameters, paperID))
			continue
		}

		values, firstReply, err := u.extractPaper(paperID, queries, paramList)
		if firstReply != "" {
			result.Explanations = append(result.Explanations, firstReply)
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to extract %s: %v", paperID, err))
			result.Table.Rows = append(result.Table.Rows, errorRow(u.opts.Parameters, paperID))
			continue
		}

		result.Table.Rows = append(result.Table.Rows, buildRow(u.opts.Parameters, values, paperID))
		result.FilesProcessed++
		if u.opts.Verbose {
			fmt.Printf("File %d processed.\n", result.FilesProcessed)
		}
	}
	if u.opts.Verbose {
		fmt.Printf("%d files processed.\n", result.FilesProcessed)
	}

	return result, nil
}

func (u *ExtractUseCase) indexPaper(paperID, path string, result *ExtractResult) error {
	pdf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	layout, err := u.analyzer.Analyze(paperID, pdf)
	if err != nil {
		return err
	}

	sections, err := layout.SectionChunks()
	if err != nil {
		return err
	}

	if u.opts.Verbose {
		for i, section := range sections {
			fmt.Printf("Embedding %s, section %d: %d characters.\n", paperID, i, len(section))
		}
	}

	if err := u.store.Insert(paperID, sections, nil); err != nil {
		return err
	}

	result.ChunksIndexed += len(sections)
	if u.opts.Verbose {
		fmt.Printf("File %d (%s) embedded.\n", result.FilesIndexed+1, paperID)
	}
	return nil
}

func (u *ExtractUseCase) extractPaper(paperID string, queries []string, paramList string) (map[string]string, string, error) {
	hitsPerQuery, err := u.store.Query(queries, paperID, u.opts.TopK)
	if err != nil {
		return nil, "", fmt.Errorf("retrieval failed: %w", err)
	}

	// One context block per parameter: that parameter's retrieved chunks
	// joined in rank order. A paper with no chunks yields empty blocks and
	// still goes through the prompt chain.
	contexts := make([]string, len(hitsPerQuery))
	for i, hits := range hitsPerQuery {
		texts := make([]string, len(hits))
		for j, h := range hits {
			texts[j] = h.Chunk.Text
		}
		contexts[i] = strings.Join(texts, "\n")
	}

	firstMessages := []domain.Message{
		domain.SystemMessage(u.opts.SystemPrompt),
		domain.UserMessage(fmt.Sprintf("These are the requested parameters:\n%s\n\n", paramList)),
		domain.UserMessage(fmt.Sprintf("These are the relevant extracts: \n%s", renderStrings(contexts))),
	}
	firstReply, err := u.llm.Generate(firstMessages)
	if err != nil {
		return nil, "", fmt.Errorf("extraction call failed: %w", err)
	}

	refineMessages := []domain.Message{
		domain.SystemMessage(u.opts.RefinePrompt),
		domain.UserMessage(fmt.Sprintf("These are the requested parameters:\n%s\n\n", paramList)),
		domain.UserMessage("This is the text:\n" + firstReply),
	}
	values, err := refineToValues(u.llm, refineMessages)
	if err != nil {
		return nil, firstReply, err
	}
	return values, firstReply, nil
}
