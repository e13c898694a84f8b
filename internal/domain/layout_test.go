package domain

import (
	"strings"
	"testing"
)

func TestSectionChunks(t *testing.T) {
	l := &Layout{
		Paragraphs: []string{"Background text.", "Methods text.", "Results text."},
		Sections: []Section{
			{Elements: []string{"/paragraphs/0", "/paragraphs/1"}},
			{Elements: []string{"/paragraphs/2"}},
		},
	}

	chunks, err := l.SectionChunks()
	if err != nil {
		t.Fatalf("SectionChunks: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != "Background text.\nMethods text.\n" {
		t.Errorf("chunk 0 = %q", chunks[0])
	}
	if chunks[1] != "Results text.\n" {
		t.Errorf("chunk 1 = %q", chunks[1])
	}
}

func TestSectionChunksSkipsNonParagraphElements(t *testing.T) {
	l := &Layout{
		Paragraphs: []string{"Only paragraph."},
		Sections: []Section{
			{Elements: []string{"/tables/0", "/paragraphs/0", "/figures/1"}},
		},
	}

	chunks, err := l.SectionChunks()
	if err != nil {
		t.Fatalf("SectionChunks: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "Only paragraph.\n" {
		t.Errorf("chunks = %q", chunks)
	}
}

func TestSectionChunksMissingParagraph(t *testing.T) {
	l := &Layout{
		Paragraphs: []string{"p0"},
		Sections:   []Section{{Elements: []string{"/paragraphs/3"}}},
	}

	if _, err := l.SectionChunks(); err == nil {
		t.Fatal("expected error for reference to missing paragraph")
	}
}

func TestParagraphChunks(t *testing.T) {
	l := &Layout{Paragraphs: []string{"first", "second"}}

	chunks := l.ParagraphChunks()
	if len(chunks) != 2 || chunks[0] != "first" || chunks[1] != "second" {
		t.Fatalf("chunks = %q", chunks)
	}

	chunks[0] = "mutated"
	if l.Paragraphs[0] != "first" {
		t.Error("mutating the returned slice changed the layout")
	}
}

func TestFullText(t *testing.T) {
	l := &Layout{
		Text:   "line one\nline two\n",
		Tables: []string{`[{"0":"a","1":"b"}]`, `[{"0":"c"}]`},
	}

	got := l.FullText()
	want := "line one\nline two\n\n\n\nTables:\n[{\"0\":\"a\",\"1\":\"b\"}]\n\n\n[{\"0\":\"c\"}]"
	if got != want {
		t.Errorf("FullText = %q, want %q", got, want)
	}

	empty := &Layout{Text: "just text\n"}
	if !strings.HasSuffix(empty.FullText(), "Tables:\n") {
		t.Errorf("tables header missing for table-free layout: %q", empty.FullText())
	}
}
