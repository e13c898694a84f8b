package docint

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
)

// buildLayout assembles the raw analysis result into the layout shape the
// rest of the pipeline consumes.
func buildLayout(res *analyzeResult) *domain.Layout {
	var text strings.Builder
	for _, p := range res.Pages {
		for _, l := range p.Lines {
			text.WriteString(l.Content)
			text.WriteString("\n")
		}
	}

	tables := make([]string, 0, len(res.Tables))
	for _, t := range res.Tables {
		tables = append(tables, serializeTable(t))
	}

	paragraphs := make([]string, 0, len(res.Paragraphs))
	for _, p := range res.Paragraphs {
		paragraphs = append(paragraphs, p.Content)
	}

	sections := make([]domain.Section, 0, len(res.Sections))
	for _, s := range res.Sections {
		sections = append(sections, domain.Section{Elements: s.Elements})
	}

	return &domain.Layout{
		Text:       text.String(),
		Tables:     tables,
		Paragraphs: paragraphs,
		Sections:   sections,
	}
}

// serializeTable renders a table as a JSON array of row objects keyed by
// column index, the shape downstream prompts were tuned on. Rows keep
// their encounter order, columns are sorted, and absent cells are null.
func serializeTable(t table) string {
	rows := make(map[int]map[int]string)
	var rowOrder []int
	colSet := make(map[int]struct{})

	for _, cell := range t.Cells {
		if _, ok := rows[cell.RowIndex]; !ok {
			rows[cell.RowIndex] = make(map[int]string)
			rowOrder = append(rowOrder, cell.RowIndex)
		}
		rows[cell.RowIndex][cell.ColumnIndex] = cell.Content
		colSet[cell.ColumnIndex] = struct{}{}
	}

	cols := make([]int, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Ints(cols)

	var b strings.Builder
	b.WriteString("[")
	for ri, r := range rowOrder {
		if ri > 0 {
			b.WriteString(",")
		}
		b.WriteString("{")
		for ci, col := range cols {
			if ci > 0 {
				b.WriteString(",")
			}
			b.WriteString(`"` + strconv.Itoa(col) + `":`)
			if v, ok := rows[r][col]; ok {
				b.WriteString(marshalCell(v))
			} else {
				b.WriteString("null")
			}
		}
		b.WriteString("}")
	}
	b.WriteString("]")
	return b.String()
}

// marshalCell encodes a cell without HTML escaping so values like "<1%"
// stay readable inside prompts.
func marshalCell(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		b, _ := json.Marshal(s)
		return string(b)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
