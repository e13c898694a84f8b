package port

import "github.com/dup0630/param-ext-mcgill-phac/internal/domain"

// Ledger is the append-only record store for extraction results. It also
// serves as the prompt store: prompt history per parameter is recovered by
// filtering records.
type Ledger interface {
	// Records returns all records in file order.
	Records() []domain.Record

	// NextIteration returns max(iteration)+1, or 1 for an empty ledger.
	NextIteration() int

	// Append adds one record and persists the whole ledger.
	Append(rec domain.Record) error
}
