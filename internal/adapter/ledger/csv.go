package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
)

var columns = []string{
	"paper_id",
	"parameter_name",
	"extracted_value",
	"true_value",
	"success_label",
	"confusion_label",
	"prompt_version",
	"model_name",
	"iteration_number",
}

// CSVLedger keeps the cumulative extraction records in one CSV file. The
// whole ledger is loaded at open and rewritten after every append, so a
// run killed mid-iteration never leaves a half-written record behind the
// current one. Files written by older versions may lack columns; those
// fields load as empty strings and prior records are otherwise preserved.
type CSVLedger struct {
	path    string
	records []domain.Record
}

func Open(path string) (*CSVLedger, error) {
	l := &CSVLedger{path: path}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}
	if len(rows) == 0 {
		return l, nil
	}

	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[strings.TrimSpace(name)] = i
	}
	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	for _, row := range rows[1:] {
		rec := domain.Record{
			PaperID:   get(row, "paper_id"),
			Parameter: get(row, "parameter_name"),
			Extracted: get(row, "extracted_value"),
			Truth:     get(row, "true_value"),
			Success:   get(row, "success_label"),
			Confusion: get(row, "confusion_label"),
			Prompt:    get(row, "prompt_version"),
			Model:     get(row, "model_name"),
			Iteration: parseIteration(get(row, "iteration_number")),
		}
		l.records = append(l.records, rec)
	}

	return l, nil
}

// parseIteration tolerates float renderings like "4.0" that other tools
// write into integer columns. Anything unparsable counts as unset.
func parseIteration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func (l *CSVLedger) Records() []domain.Record {
	return l.records
}

func (l *CSVLedger) NextIteration() int {
	max := 0
	for _, r := range l.records {
		if r.Iteration > max {
			max = r.Iteration
		}
	}
	return max + 1
}

func (l *CSVLedger) Append(rec domain.Record) error {
	l.records = append(l.records, rec)
	return l.flush()
}

func (l *CSVLedger) flush() error {
	f, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("failed to write ledger %s: %w", l.path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		f.Close()
		return fmt.Errorf("failed to write ledger header: %w", err)
	}

	for _, rec := range l.records {
		iteration := ""
		if rec.Iteration > 0 {
			iteration = strconv.Itoa(rec.Iteration)
		}
		row := []string{
			rec.PaperID,
			rec.Parameter,
			rec.Extracted,
			rec.Truth,
			rec.Success,
			rec.Confusion,
			rec.Prompt,
			rec.Model,
			iteration,
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("failed to write ledger row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	return f.Close()
}
