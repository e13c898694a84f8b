package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/cache"
	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
	"github.com/dup0630/param-ext-mcgill-phac/internal/port"
)

// improvePromptTemplate is the meta-prompt asking the model for a better
// extraction prompt. The first placeholder is the parameter, the second
// the formatted history of earlier prompts and their graded outcomes.
const improvePromptTemplate = `You are an AI assistant tasked with improving prompt design for extracting specific **epidemiological parameters** from medical research papers using large language models.

### Objective:
Your job is to extract only the **%s** from research paper text using a well-crafted prompt. You are provided with a history of previous prompts along with examples of their performance. Each block includes:
- The prompt that was used
- The model's extracted output
- The correct (ground truth) value
- Whether the extraction was marked a success or failure by a human evaluator

### Instructions:
- You may revise and improve the **retrieval instructions** section that precedes the document text in order to increase extraction accuracy.
- However, you **must not remove** the retrieval instructions altogether — they are required and must remain present in the improved prompt.
- Analyze patterns in failed extractions: how did the extracted value differ from the true one? What kinds of misunderstanding, vagueness, or missing guidance might have contributed?
- Likewise, consider what made successful prompts work. What specific phrasing or framing helped guide the model toward the correct answer?
- Use this insight to improve the retrieval instructions section and/or the phrasing of the core task instruction.
- Your output must be a **single improved prompt**, suitable for future GPT use.
### Constraints:
- Your output must be a single prompt for extracting the parameter **only**.
- **Do NOT include any explanation, commentary, or justification. Just return the improved prompt as plain text.**

### Historical Prompt Examples with Performance:
%s`

// RefineTarget binds a ground-truth CSV column to the parameter text used
// in prompts and ledger records.
type RefineTarget struct {
	Column    string
	Parameter string
}

// RefineOptions configures one refinement iteration.
type RefineOptions struct {
	PapersDir string
	Preamble  string
	TextLimit int
	Targets   []RefineTarget
	Verbose   bool
}

// RefineUseCase is the human-supervised prompt-refinement loop. Per
// parameter it asks the model for an improved prompt grounded in the
// ledger's graded history, runs a single-call extraction over each
// paper's cached text, suspends for a judgment, and appends the record.
type RefineUseCase struct {
	analyzer port.Analyzer
	llm      port.LLM
	ledger   port.Ledger
	judge    port.Judge
	texts    *cache.TextCache
	opts     RefineOptions
}

func NewRefineUseCase(
	analyzer port.Analyzer,
	llm port.LLM,
	ledger port.Ledger,
	judge port.Judge,
	texts *cache.TextCache,
	opts RefineOptions,
) *RefineUseCase {
	if opts.TextLimit <= 0 {
		opts.TextLimit = 16000
	}
	return &RefineUseCase{
		analyzer: analyzer,
		llm:      llm,
		ledger:   ledger,
		judge:    judge,
		texts:    texts,
		opts:     opts,
	}
}

// RefineResult summarizes one iteration.
type RefineResult struct {
	Iteration    int
	RecordsAdded int
	Errors       []string
}

// Run executes one iteration over the papers listed in the ground-truth
// CSV. Every record written during the run shares the same iteration
// number, taken from the ledger before any extraction.
func (u *RefineUseCase) Run(truthPath string) (*RefineResult, error) {
	if len(u.opts.Targets) == 0 {
		return nil, fmt.Errorf("no refinement targets configured")
	}

	truth, err := loadTruthTable(truthPath)
	if err != nil {
		return nil, err
	}
	if !truth.hasColumn("PDF") {
		return nil, fmt.Errorf("truth table %s has no PDF column", truthPath)
	}
	for _, target := range u.opts.Targets {
		if !truth.hasColumn(target.Column) {
			return nil, fmt.Errorf("truth table %s has no %s column", truthPath, target.Column)
		}
	}

	result := &RefineResult{Iteration: u.ledger.NextIteration()}

	for _, target := range u.opts.Targets {
		prompt, metaErr := u.improvePrompt(target.Parameter)
		if metaErr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("prompt improvement for %s failed, reusing previous prompt: %v", target.Parameter, metaErr))
		}

		for _, row := range truth.rows {
			paperID := row["PDF"]
			if paperID == "" {
				return nil, fmt.Errorf("truth table %s has a row with an empty PDF cell", truthPath)
			}

			pdfPath := filepath.Join(u.opts.PapersDir, paperID+".pdf")
			if _, err := os.Stat(pdfPath); err != nil {
				return nil, fmt.Errorf("no PDF found for paper %s at %s: %w", paperID, pdfPath, err)
			}

			text, err := u.paperText(paperID, pdfPath)
			if err != nil {
				return nil, err
			}

			extracted := u.extractValue(prompt, text, target.Parameter, paperID, result)

			judgment, err := u.judge.Judge(target.Parameter, paperID, extracted, row[target.Column])
			if err != nil {
				return nil, fmt.Errorf("judgment for %s failed: %w", paperID, err)
			}

			rec := domain.Record{
				PaperID:   paperID,
				Parameter: target.Parameter,
				Extracted: extracted,
				Truth:     row[target.Column],
				Success:   judgment.Success,
				Confusion: string(judgment.Confusion),
				Prompt:    prompt,
				Model:     u.llm.ModelName(),
				Iteration: result.Iteration,
			}
			if err := u.ledger.Append(rec); err != nil {
				return nil, err
			}
			result.RecordsAdded++
		}
	}

	return result, nil
}

// improvePrompt asks the model for an improved prompt body and re-prepends
// the mandatory retrieval-instructions preamble. When the meta call fails
// the most recent prompt for the parameter is reused; with no history the
// prompt degrades to the preamble plus the parameter line.
func (u *RefineUseCase) improvePrompt(parameter string) (string, error) {
	if u.opts.Verbose {
		fmt.Printf("Generating improved prompt for %s...\n", parameter)
	}

	history := buildPromptHistory(u.ledger.Records(), parameter)
	meta := fmt.Sprintf(improvePromptTemplate, parameter, history)

	body, err := u.llm.Generate([]domain.Message{domain.UserMessage(meta)})
	if err == nil && strings.TrimSpace(body) == "" {
		err = fmt.Errorf("model returned an empty prompt")
	}
	if err != nil {
		if last := lastPrompt(u.ledger.Records(), parameter); last != "" {
			return last, err
		}
		return u.assemblePrompt(parameter, ""), err
	}
	return u.assemblePrompt(parameter, body), nil
}

func (u *RefineUseCase) assemblePrompt(parameter, body string) string {
	prompt := u.opts.Preamble + "\n\n**Parameter to Extract:** " + parameter + "\n"
	if body != "" {
		prompt += body + "\n"
	}
	return prompt
}

// buildPromptHistory formats every ledger record for the parameter as a
// prompt/extracted/true/success block, separated by --- lines.
func buildPromptHistory(records []domain.Record, parameter string) string {
	var blocks []string
	for _, r := range records {
		if r.Parameter != parameter {
			continue
		}
		blocks = append(blocks, fmt.Sprintf(
			"Prompt: %s\nExtracted: %s\nTrue: %s\nSuccess: %s\n",
			strings.TrimSpace(r.Prompt),
			strings.TrimSpace(r.Extracted),
			strings.TrimSpace(r.Truth),
			strings.TrimSpace(r.Success),
		))
	}
	return strings.Join(blocks, "\n---\n")
}

func lastPrompt(records []domain.Record, parameter string) string {
	last := ""
	for _, r := range records {
		if r.Parameter == parameter && r.Prompt != "" {
			last = r.Prompt
		}
	}
	return last
}

// paperText fetches the document text through the file cache; a miss
// costs one analysis call and persists the result for every later
// iteration.
func (u *RefineUseCase) paperText(paperID, pdfPath string) (string, error) {
	if text, hit, err := u.texts.Get(paperID); err != nil {
		return "", err
	} else if hit {
		if u.opts.Verbose {
			fmt.Printf("Using cached text for %s.\n", pdfPath)
		}
		return text, nil
	}
	if u.opts.Verbose {
		fmt.Printf("Analyzing %s.\n", pdfPath)
	}

	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", pdfPath, err)
	}
	layout, err := u.analyzer.Analyze(paperID, pdf)
	if err != nil {
		return "", err
	}

	text := layout.FullText()
	if err := u.texts.Put(paperID, text); err != nil {
		return "", err
	}
	return text, nil
}

// extractValue runs the single extraction call. A provider failure is
// recorded and marked with the error sentinel so the human gate and the
// ledger still see the paper; an empty reply becomes NA.
func (u *RefineUseCase) extractValue(prompt, text, parameter, paperID string, result *RefineResult) string {
	full := prompt + "\n\n**Document Text:**\n" + truncateRunes(text, u.opts.TextLimit)

	reply, err := u.llm.Generate([]domain.Message{domain.UserMessage(full)})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("extraction for %s (paper %s) failed: %v", parameter, paperID, err))
		return domain.SentinelError
	}
	if reply == "" {
		return domain.SentinelEmpty
	}
	if u.opts.Verbose {
		fmt.Printf("\nModel response for %s:\n%s\n", parameter, reply)
	}
	return reply
}
