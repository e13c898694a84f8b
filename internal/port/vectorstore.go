package port

import "github.com/dup0630/param-ext-mcgill-phac/internal/domain"

// VectorStore is a named collection of document chunks with
// metadata-scoped nearest-neighbor search.
type VectorStore interface {
	// Reset destroys the collection and recreates it empty with the given
	// distance metric. The metric is fixed until the next Reset.
	Reset(metric domain.Distance) error

	// Insert embeds the chunks and stores them under ids derived from
	// (paperID, index). Indices default to 0..len(chunks)-1 when nil.
	// Inserting an id that already exists updates it in place.
	Insert(paperID string, chunks []string, indices []int) error

	// Query returns for each query text, independently, the k nearest
	// chunks whose paper_id metadata equals paperID. A paper with fewer
	// than k chunks yields all of them; a paper with none yields an
	// empty slice.
	Query(queryTexts []string, paperID string, k int) ([][]domain.Hit, error)

	// Count returns the number of stored chunks.
	Count() int

	// CountPaper returns the number of stored chunks for one paper.
	CountPaper(paperID string) int

	// SaveToFile snapshots the collection for later inspection.
	SaveToFile(path string) error
}
