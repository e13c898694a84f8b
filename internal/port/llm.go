package port

import "github.com/dup0630/param-ext-mcgill-phac/internal/domain"

// LLM represents a language model for text generation.
type LLM interface {
	// Generate generates a completion for the ordered message list.
	// An empty reply with a successful status is not an error.
	Generate(messages []domain.Message) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
