package port

import "github.com/dup0630/param-ext-mcgill-phac/internal/domain"

// Analyzer runs document layout analysis on a PDF.
type Analyzer interface {
	Analyze(paperID string, pdf []byte) (*domain.Layout, error)
}
