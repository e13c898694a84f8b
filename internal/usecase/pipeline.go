package usecase

import (
	"encoding/json"
	"fmt"

	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
	"github.com/dup0630/param-ext-mcgill-phac/internal/port"
)

// ProgressFunc reports loop progress to the caller. May be nil.
type ProgressFunc func(processed, total int, current string)

// retryInstruction is appended when a refinement reply fails to parse.
// The second attempt leaves no room for prose.
const retryInstruction = "Your previous reply was not valid JSON. Reply again with only a JSON object whose keys are exactly the requested parameter names, with no surrounding text."

// renderParameters renders the target parameters as a JSON array of
// strings, which is the shape the pipeline prompts embed.
func renderParameters(params []domain.Parameter) string {
	texts := make([]string, len(params))
	for i, p := range params {
		texts[i] = p.String()
	}
	return renderStrings(texts)
}

func renderStrings(texts []string) string {
	data, _ := json.Marshal(texts)
	return string(data)
}

// truncateRunes limits text to at most limit characters. Slicing runes
// rather than bytes keeps a multi-byte character from being split.
func truncateRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// refineToValues runs the second pass and parses the reply as a JSON
// object keyed by parameter name, retrying once with a stricter
// instruction when the first reply does not parse.
func refineToValues(llm port.LLM, messages []domain.Message) (map[string]string, error) {
	reply, err := llm.Generate(messages)
	if err != nil {
		return nil, fmt.Errorf("refinement call failed: %w", err)
	}

	values, parseErr := domain.ParseExtraction(reply)
	if parseErr == nil {
		return values, nil
	}

	retry := append(append([]domain.Message{}, messages...), domain.UserMessage(retryInstruction))
	reply, err = llm.Generate(retry)
	if err != nil {
		return nil, fmt.Errorf("refinement retry failed: %w", err)
	}
	values, err = domain.ParseExtraction(reply)
	if err != nil {
		return nil, fmt.Errorf("refinement reply did not parse after retry: %w", err)
	}
	return values, nil
}

// buildRow maps parsed values onto the configured parameter order,
// ending with the paper id. A parameter the reply skipped or left empty
// gets the not-found sentinel so the table stays rectangular.
func buildRow(params []domain.Parameter, values map[string]string, paperID string) []string {
	row := make([]string, 0, len(params)+1)
	for _, p := range params {
		v, ok := values[p.Name]
		if !ok {
			v, ok = values[p.String()]
		}
		if !ok || v == "" {
			v = domain.SentinelNotFound
		}
		row = append(row, v)
	}
	return append(row, paperID)
}

// errorRow marks a document whose extraction failed outright.
func errorRow(params []domain.Parameter, paperID string) []string {
	row := make([]string, 0, len(params)+1)
	for range params {
		row = append(row, domain.SentinelError)
	}
	return append(row, paperID)
}

func resultColumns(params []domain.Parameter) []string {
	columns := make([]string, 0, len(params)+1)
	for _, p := range params {
		columns = append(columns, p.Name)
	}
	return append(columns, "Paper")
}
