package docint

import (
	"testing"
)

func TestBuildLayoutText(t *testing.T) {
	res := &analyzeResult{
		Pages: []page{
			{PageNumber: 1, Lines: []line{{Content: "Measles outbreak report"}, {Content: "Methods and results"}}},
			{PageNumber: 2, Lines: []line{{Content: "Discussion"}}},
		},
		Paragraphs: []paragraph{{Content: "Intro paragraph."}, {Content: "Body paragraph."}},
		Sections:   []section{{Elements: []string{"/paragraphs/0", "/paragraphs/1"}}},
	}

	layout := buildLayout(res)

	wantText := "Measles outbreak report\nMethods and results\nDiscussion\n"
	if layout.Text != wantText {
		t.Errorf("Text = %q, want %q", layout.Text, wantText)
	}
	if len(layout.Paragraphs) != 2 || layout.Paragraphs[1] != "Body paragraph." {
		t.Errorf("Paragraphs = %q", layout.Paragraphs)
	}
	if len(layout.Sections) != 1 || len(layout.Sections[0].Elements) != 2 {
		t.Errorf("Sections = %+v", layout.Sections)
	}

	chunks, err := layout.SectionChunks()
	if err != nil {
		t.Fatalf("SectionChunks: %v", err)
	}
	if chunks[0] != "Intro paragraph.\nBody paragraph.\n" {
		t.Errorf("chunk = %q", chunks[0])
	}
}

func TestSerializeTable(t *testing.T) {
	tbl := table{
		RowCount:    2,
		ColumnCount: 2,
		Cells: []tableCell{
			{RowIndex: 0, ColumnIndex: 0, Content: "Age group"},
			{RowIndex: 0, ColumnIndex: 1, Content: "Deaths"},
			{RowIndex: 1, ColumnIndex: 0, Content: "<5"},
			{RowIndex: 1, ColumnIndex: 1, Content: "12"},
		},
	}

	got := serializeTable(tbl)
	want := `[{"0":"Age group","1":"Deaths"},{"0":"<5","1":"12"}]`
	if got != want {
		t.Errorf("serializeTable = %s, want %s", got, want)
	}
}

func TestSerializeTableSparseCells(t *testing.T) {
	tbl := table{
		RowCount:    2,
		ColumnCount: 2,
		Cells: []tableCell{
			{RowIndex: 0, ColumnIndex: 0, Content: "Total"},
			{RowIndex: 1, ColumnIndex: 1, Content: "388"},
		},
	}

	got := serializeTable(tbl)
	want := `[{"0":"Total","1":null},{"0":null,"1":"388"}]`
	if got != want {
		t.Errorf("serializeTable = %s, want %s", got, want)
	}
}

func TestSerializeTableEmpty(t *testing.T) {
	if got := serializeTable(table{}); got != "[]" {
		t.Errorf("serializeTable = %s, want []", got)
	}
}
