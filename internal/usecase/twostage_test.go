package usecase

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/docint"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/fs"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/genai"
	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
)

func TestTwoStagePipeline(t *testing.T) {
	dir := writeCorpus(t, "c.pdf")

	layout := &domain.Layout{
		Text:   "Results. Of 40 admitted patients, 2 died.",
		Tables: []string{"outcome, count\ndied, 2"},
	}
	analyzer := &docint.MockAnalyzer{Layouts: map[string]*domain.Layout{"c.pdf": layout}}
	llm := genai.NewMockLLM(
		genai.MockReply{Text: "Two deaths among forty admissions gives 5%."},
		genai.MockReply{Text: `{"CFR": "5%"}`},
	)

	uc := NewTwoStageUseCase(
		fs.NewWalker(nil, nil),
		analyzer,
		llm,
		TwoStageOptions{
			SystemPrompt: "extract",
			RefinePrompt: "refine",
			Parameters:   []domain.Parameter{{Name: "CFR"}},
		},
	)

	result, err := uc.Run(dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := [][]string{{"5%", "c.pdf"}}
	if !reflect.DeepEqual(result.Table.Rows, want) {
		t.Errorf("rows = %v, want %v", result.Table.Rows, want)
	}
	if result.FilesProcessed != 1 {
		t.Errorf("FilesProcessed = %d, want 1", result.FilesProcessed)
	}
	if len(result.Explanations) != 1 || result.Explanations[0] != "Two deaths among forty admissions gives 5%." {
		t.Errorf("explanations = %v", result.Explanations)
	}

	if len(llm.Calls) != 2 {
		t.Fatalf("llm calls = %d, want 2", len(llm.Calls))
	}
	first := llm.Calls[0]
	if first[0].Role != domain.RoleSystem || first[0].Content != "extract" {
		t.Errorf("first call system message = %+v", first[0])
	}
	if got := first[1].Content; got != "This is the article text:\n"+layout.FullText()+"\n\n" {
		t.Errorf("article text message = %q", got)
	}
	if got := first[2].Content; got != "These are the requested parameters:\n[\"CFR\"]" {
		t.Errorf("parameter message = %q", got)
	}
	refine := llm.Calls[1]
	if refine[0].Content != "refine" {
		t.Errorf("refine system message = %q", refine[0].Content)
	}
	if got := refine[1].Content; got != "This is the text:\nTwo deaths among forty admissions gives 5%.\n\n" {
		t.Errorf("refine text message = %q", got)
	}
}

func TestTwoStageParameterDefinitions(t *testing.T) {
	dir := writeCorpus(t, "c.pdf")

	analyzer := &docint.MockAnalyzer{Layouts: map[string]*domain.Layout{"c.pdf": {Text: "text"}}}
	llm := genai.NewMockLLM(
		genai.MockReply{Text: "prose"},
		genai.MockReply{Text: `{"CFR": "1%", "Duration": "4 days"}`},
	)

	uc := NewTwoStageUseCase(fs.NewWalker(nil, nil), analyzer, llm, TwoStageOptions{
		Parameters: []domain.Parameter{
			{Name: "CFR", Definition: "deaths among hospitalized cases"},
			{Name: "Duration"},
		},
	})

	result, err := uc.Run(dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !reflect.DeepEqual(result.Table.Columns, []string{"CFR", "Duration", "Paper"}) {
		t.Errorf("columns = %v", result.Table.Columns)
	}
	want := [][]string{{"1%", "4 days", "c.pdf"}}
	if !reflect.DeepEqual(result.Table.Rows, want) {
		t.Errorf("rows = %v, want %v", result.Table.Rows, want)
	}
	wantParams := "These are the requested parameters:\n[\"CFR: deaths among hospitalized cases\",\"Duration\"]"
	if got := llm.Calls[0][2].Content; got != wantParams {
		t.Errorf("parameter message = %q, want %q", got, wantParams)
	}
}

func TestTwoStageAnalyzerFailure(t *testing.T) {
	dir := writeCorpus(t, "c.pdf")

	analyzer := &docint.MockAnalyzer{Err: errors.New("poll timed out")}
	llm := genai.NewMockLLM()

	uc := NewTwoStageUseCase(fs.NewWalker(nil, nil), analyzer, llm, TwoStageOptions{
		Parameters: []domain.Parameter{{Name: "CFR"}},
	})

	result, err := uc.Run(dir, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := [][]string{{domain.SentinelError, "c.pdf"}}
	if !reflect.DeepEqual(result.Table.Rows, want) {
		t.Errorf("rows = %v, want %v", result.Table.Rows, want)
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %v, want one entry", result.Errors)
	}
	if len(llm.Calls) != 0 {
		t.Errorf("model was called %d times for an unanalyzed paper", len(llm.Calls))
	}
}
