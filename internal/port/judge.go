package port

import "github.com/dup0630/param-ext-mcgill-phac/internal/domain"

// Judge decides whether an extracted value matches the ground truth and
// assigns a confusion-matrix label. The console implementation asks a
// human; batch runs may plug in a stub.
type Judge interface {
	Judge(parameter, paperID, extracted, truth string) (domain.Judgment, error)
}
