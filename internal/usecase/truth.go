package usecase

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// truthTable is a loaded ground-truth CSV addressed by column name.
type truthTable struct {
	columns []string
	rows    []map[string]string
}

func loadTruthTable(path string) (*truthTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open truth table %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read truth table %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("truth table %s is empty", path)
	}

	columns := make([]string, len(records[0]))
	for i, name := range records[0] {
		columns[i] = strings.TrimSpace(name)
	}

	t := &truthTable{columns: columns}
	for _, rec := range records[1:] {
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			} else {
				row[col] = ""
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func (t *truthTable) hasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}
