package usecase

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Table is a rectangular result with one row per processed document.
type Table struct {
	Columns []string
	Rows    [][]string
}

// WriteCSV writes the table with its header row.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("failed to write row to %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}

// WriteExplanations writes each first-pass reply followed by a blank line.
func WriteExplanations(path string, explanations []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	for _, exp := range explanations {
		if _, err := fmt.Fprintf(f, "%s\n\n", exp); err != nil {
			f.Close()
			return fmt.Errorf("failed to write explanation: %w", err)
		}
	}
	return f.Close()
}
