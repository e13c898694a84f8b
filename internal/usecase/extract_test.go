package usecase

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/docint"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/embedding"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/fs"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/genai"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/vectorstore"
	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
)

func writeCorpus(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.7 "+name), 0o644); err != nil {
			t.Fatalf("WriteFile %s: %v", name, err)
		}
	}
	return dir
}

func TestExtractPipelineEndToEnd(t *testing.T) {
	dir := writeCorpus(t, "a.pdf", "b.pdf")

	analyzer := &docint.MockAnalyzer{Layouts: map[string]*domain.Layout{
		"a.pdf": {
			Paragraphs: []string{"The study reported a hospitalized CFR of 12% among admitted children."},
			Sections:   []domain.Section{{Elements: []string{"/paragraphs/0"}}},
		},
		"b.pdf": {},
	}}
	llm := genai.NewMockLLM(
		genai.MockReply{Text: "The CFR is stated as 12% among hospitalized children."},
		genai.MockReply{Text: `{"CFR": "12%"}`},
		genai.MockReply{Text: "No relevant extracts were provided."},
		genai.MockReply{Text: `{"CFR": "not found"}`},
	)

	uc := NewExtractUseCase(
		fs.NewWalker(nil, nil),
		analyzer,
		vectorstore.New(embedding.NewMockEmbedder(8)),
		llm,
		ExtractOptions{
			SystemPrompt: "extract",
			RefinePrompt: "refine",
			Parameters:   []domain.Parameter{{Name: "CFR"}},
			TopK:         1,
		},
	)

	result, err := uc.Run(dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if !reflect.DeepEqual(result.Table.Columns, []string{"CFR", "Paper"}) {
		t.Errorf("columns = %v", result.Table.Columns)
	}
	want := [][]string{
		{"12%", "a.pdf"},
		{"not found", "b.pdf"},
	}
	if !reflect.DeepEqual(result.Table.Rows, want) {
		t.Errorf("rows = %v, want %v", result.Table.Rows, want)
	}
	if result.FilesIndexed != 2 {
		t.Errorf("FilesIndexed = %d, want 2", result.FilesIndexed)
	}
	if result.ChunksIndexed != 1 {
		t.Errorf("ChunksIndexed = %d, want 1", result.ChunksIndexed)
	}
	if result.FilesProcessed != 2 {
		t.Errorf("FilesProcessed = %d, want 2", result.FilesProcessed)
	}
	if len(result.Explanations) != 2 {
		t.Fatalf("Explanations = %d entries, want 2", len(result.Explanations))
	}
	if result.Explanations[0] != "The CFR is stated as 12% among hospitalized children." {
		t.Errorf("first explanation = %q", result.Explanations[0])
	}

	if len(llm.Calls) != 4 {
		t.Fatalf("llm calls = %d, want 4", len(llm.Calls))
	}
	// A paper with no indexed chunks still goes through the prompt chain,
	// with an empty context block per parameter.
	bFirst := llm.Calls[2]
	if got := bFirst[2].Content; got != "These are the relevant extracts: \n[\"\"]" {
		t.Errorf("zero-chunk context message = %q", got)
	}
	aFirst := llm.Calls[0]
	if got := aFirst[1].Content; got != "These are the requested parameters:\n[\"CFR\"]\n\n" {
		t.Errorf("parameter message = %q", got)
	}
}

func TestExtractAnalyzerFailureKeepsCorpusMember(t *testing.T) {
	dir := writeCorpus(t, "a.pdf")

	analyzer := &docint.MockAnalyzer{Err: errors.New("service unavailable")}
	llm := genai.NewMockLLM()

	uc := NewExtractUseCase(
		fs.NewWalker(nil, nil),
		analyzer,
		vectorstore.New(embedding.NewMockEmbedder(8)),
		llm,
		ExtractOptions{Parameters: []domain.Parameter{{Name: "CFR"}}},
	)

	result, err := uc.Run(dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := [][]string{{domain.SentinelError, "a.pdf"}}
	if !reflect.DeepEqual(result.Table.Rows, want) {
		t.Errorf("rows = %v, want %v", result.Table.Rows, want)
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %v, want one entry", result.Errors)
	}
	if result.FilesIndexed != 0 {
		t.Errorf("FilesIndexed = %d, want 0", result.FilesIndexed)
	}
	if len(llm.Calls) != 0 {
		t.Errorf("model was called %d times for an unindexed paper", len(llm.Calls))
	}
}

func TestExtractProviderErrorMarksRow(t *testing.T) {
	dir := writeCorpus(t, "a.pdf")

	analyzer := &docint.MockAnalyzer{Layouts: map[string]*domain.Layout{
		"a.pdf": {
			Paragraphs: []string{"some text"},
			Sections:   []domain.Section{{Elements: []string{"/paragraphs/0"}}},
		},
	}}
	llm := genai.NewMockLLM(genai.MockReply{Err: errors.New("rate limited")})

	uc := NewExtractUseCase(
		fs.NewWalker(nil, nil),
		analyzer,
		vectorstore.New(embedding.NewMockEmbedder(8)),
		llm,
		ExtractOptions{Parameters: []domain.Parameter{{Name: "CFR"}}},
	)

	result, err := uc.Run(dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := [][]string{{domain.SentinelError, "a.pdf"}}
	if !reflect.DeepEqual(result.Table.Rows, want) {
		t.Errorf("rows = %v, want %v", result.Table.Rows, want)
	}
	if result.FilesProcessed != 0 {
		t.Errorf("FilesProcessed = %d, want 0", result.FilesProcessed)
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %v, want one entry", result.Errors)
	}
}

func TestExtractRetriesMalformedRefinement(t *testing.T) {
	dir := writeCorpus(t, "a.pdf")

	analyzer := &docint.MockAnalyzer{Layouts: map[string]*domain.Layout{
		"a.pdf": {
			Paragraphs: []string{"some text"},
			Sections:   []domain.Section{{Elements: []string{"/paragraphs/0"}}},
		},
	}}
	llm := genai.NewMockLLM(
		genai.MockReply{Text: "free-form explanation"},
		genai.MockReply{Text: "I could not produce the requested object."},
		genai.MockReply{Text: `{"CFR": "10%"}`},
	)

	uc := NewExtractUseCase(
		fs.NewWalker(nil, nil),
		analyzer,
		vectorstore.New(embedding.NewMockEmbedder(8)),
		llm,
		ExtractOptions{Parameters: []domain.Parameter{{Name: "CFR"}}},
	)

	result, err := uc.Run(dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := [][]string{{"10%", "a.pdf"}}
	if !reflect.DeepEqual(result.Table.Rows, want) {
		t.Errorf("rows = %v, want %v", result.Table.Rows, want)
	}
	if len(llm.Calls) != 3 {
		t.Fatalf("llm calls = %d, want 3", len(llm.Calls))
	}
	retry := llm.Calls[2]
	if got := retry[len(retry)-1].Content; got != retryInstruction {
		t.Errorf("retry call does not end with the strict instruction: %q", got)
	}
}

func TestExtractNoParameters(t *testing.T) {
	uc := NewExtractUseCase(
		fs.NewWalker(nil, nil),
		&docint.MockAnalyzer{},
		vectorstore.New(embedding.NewMockEmbedder(8)),
		genai.NewMockLLM(),
		ExtractOptions{},
	)
	if _, err := uc.Run(t.TempDir(), nil); err == nil {
		t.Fatal("expected an error for an empty parameter list")
	}
}
