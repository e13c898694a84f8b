package usecase

import (
	"fmt"

	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
	"github.com/dup0630/param-ext-mcgill-phac/internal/port"
)

// EvaluateUseCase summarizes one refinement iteration from the ledger:
// confusion counts, derived metrics, and per-paper status transitions
// against the previous iteration.
type EvaluateUseCase struct {
	ledger port.Ledger
}

func NewEvaluateUseCase(ledger port.Ledger) *EvaluateUseCase {
	return &EvaluateUseCase{ledger: ledger}
}

type EvaluateResult struct {
	Iteration int
	Counts    domain.ConfusionCounts
	Metrics   domain.Metrics
	// Compared is false when the ledger holds no records for the
	// previous iteration, in which case the transition lists are empty.
	Compared      bool
	FailToSuccess []string
	SuccessToFail []string
}

// Evaluate computes counts and metrics for the given iteration and, when
// the previous iteration exists, lists papers whose success label flipped.
// When a paper has several records in an iteration the last one wins.
func (u *EvaluateUseCase) Evaluate(iteration int) (*EvaluateResult, error) {
	var current, previous []domain.Record
	for _, rec := range u.ledger.Records() {
		switch rec.Iteration {
		case iteration:
			current = append(current, rec)
		case iteration - 1:
			previous = append(previous, rec)
		}
	}
	if len(current) == 0 {
		return nil, fmt.Errorf("no records for iteration %d", iteration)
	}

	result := &EvaluateResult{Iteration: iteration}
	for _, rec := range current {
		result.Counts.Add(domain.Confusion(rec.Confusion))
	}
	result.Metrics = result.Counts.Metrics()

	if len(previous) == 0 {
		return result, nil
	}
	result.Compared = true

	prevStatus := statusByPaper(previous)
	currStatus := statusByPaper(current)
	for _, paperID := range paperOrder(current) {
		prev, ok := prevStatus[paperID]
		if !ok {
			continue
		}
		curr := currStatus[paperID]
		switch {
		case prev == domain.FailLabel && curr == domain.SuccessLabel:
			result.FailToSuccess = append(result.FailToSuccess, paperID)
		case prev == domain.SuccessLabel && curr == domain.FailLabel:
			result.SuccessToFail = append(result.SuccessToFail, paperID)
		}
	}

	return result, nil
}

func statusByPaper(records []domain.Record) map[string]string {
	status := make(map[string]string, len(records))
	for _, rec := range records {
		if rec.Success == "" {
			continue
		}
		status[rec.PaperID] = rec.Success
	}
	return status
}

func paperOrder(records []domain.Record) []string {
	seen := make(map[string]bool, len(records))
	order := make([]string, 0, len(records))
	for _, rec := range records {
		if seen[rec.PaperID] {
			continue
		}
		seen[rec.PaperID] = true
		order = append(order, rec.PaperID)
	}
	return order
}
