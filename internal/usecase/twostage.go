package usecase

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
	"github.com/dup0630/param-ext-mcgill-phac/internal/port"
)

// TwoStageUseCase is the retrieval-free sibling of the extraction
// pipeline: each document's full text, tables included, goes through the
// same two-pass prompt chain without any embedding or vector search.
type TwoStageUseCase struct {
	walker   port.FileWalker
	analyzer port.Analyzer
	llm      port.LLM
	opts     TwoStageOptions
}

// TwoStageOptions configures one pipeline run.
type TwoStageOptions struct {
	SystemPrompt string
	RefinePrompt string
	Parameters   []domain.Parameter
	Verbose      bool
}

func NewTwoStageUseCase(
	walker port.FileWalker,
	analyzer port.Analyzer,
	llm port.LLM,
	opts TwoStageOptions,
) *TwoStageUseCase {
	return &TwoStageUseCase{
		walker:   walker,
		analyzer: analyzer,
		llm:      llm,
		opts:     opts,
	}
}

// TwoStageResult contains the output table and run counters.
type TwoStageResult struct {
	Table          Table
	Explanations   []string
	FilesProcessed int
	Errors         []string
}

// Run executes the pipeline over every PDF in folder.
func (u *TwoStageUseCase) Run(folder string, progress ProgressFunc) (*TwoStageResult, error) {
	if len(u.opts.Parameters) == 0 {
		return nil, fmt.Errorf("no parameters configured")
	}

	files, err := u.walker.Walk(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", folder, err)
	}

	result := &TwoStageResult{}
	result.Table.Columns = resultColumns(u.opts.Parameters)
	paramList := renderParameters(u.opts.Parameters)

	for i, file := range files {
		paperID := filepath.Base(file.Path)
		if progress != nil {
			progress(i+1, len(files), paperID)
		}

		values, firstReply, err := u.extractPaper(paperID, file.Path, paramList)
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

func (u *TwoStageUseCase) extractPaper(paperID, path, paramList string) (map[string]string, string, error) {
	pdf, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	layout, err := u.analyzer.Analyze(paperID, pdf)
	if err != nil {
		return nil, "", err
	}

	firstMessages := []domain.Message{
		domain.SystemMessage(u.opts.SystemPrompt),
		domain.UserMessage(fmt.Sprintf("This is the article text:\n%s\n\n", layout.FullText())),
		domain.UserMessage(fmt.Sprintf("These are the requested parameters:\n%s", paramList)),
	}
	firstReply, err := u.llm.Generate(firstMessages)
	if err != nil {
		return nil, "", fmt.Errorf("extraction call failed: %w", err)
	}

	refineMessages := []domain.Message{
		domain.SystemMessage(u.opts.RefinePrompt),
		domain.UserMessage(fmt.Sprintf("This is the text:\n%s\n\n", firstReply)),
		domain.UserMessage(fmt.Sprintf("These are the requested parameters:\n%s", paramList)),
	}
	values, err := refineToValues(u.llm, refineMessages)
	if err != nil {
		return nil, firstReply, err
	}
	return values, firstReply, nil
}
