package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const paragraphRefPrefix = "/paragraphs/"

// Layout is the assembled result of one document-analysis call: page text,
// tables serialized as JSON record arrays, paragraph contents in reading
// order, and the section graph referencing paragraphs by index.
type Layout struct {
	Text       string    `json:"text"`
	Tables     []string  `json:"tables"`
	Paragraphs []string  `json:"paragraphs"`
	Sections   []Section `json:"sections"`
}

type Section struct {
	Elements []string `json:"elements"`
}

// FullText joins the page text with the serialized tables. The Tables
// header is emitted even when the document has none so the output is
// stable across documents.
func (l *Layout) FullText() string {
	return l.Text + "\n\n\nTables:\n" + strings.Join(l.Tables, "\n\n\n")
}

// SectionChunks resolves each section's paragraph references into one text
// chunk per section. References to anything other than a paragraph (tables,
// figures) are skipped; a reference to a paragraph index that does not
// exist is an error rather than a silently shorter chunk.
func (l *Layout) SectionChunks() ([]string, error) {
	chunks := make([]string, 0, len(l.Sections))
	for i, sec := range l.Sections {
		var b strings.Builder
		for _, el := range sec.Elements {
			if !strings.HasPrefix(el, paragraphRefPrefix) {
				continue
			}
			n, err := strconv.Atoi(strings.TrimPrefix(el, paragraphRefPrefix))
			if err != nil {
				return nil, fmt.Errorf("section %d has malformed element reference %q: %w", i, el, err)
			}
			if n < 0 || n >= len(l.Paragraphs) {
				return nil, fmt.Errorf("section %d references missing paragraph %d (have %d)", i, n, len(l.Paragraphs))
			}
			b.WriteString(l.Paragraphs[n])
			b.WriteString("\n")
		}
		chunks = append(chunks, b.String())
	}
	return chunks, nil
}

// ParagraphChunks returns each paragraph as its own chunk, in order.
func (l *Layout) ParagraphChunks() []string {
	out := make([]string, len(l.Paragraphs))
	copy(out, l.Paragraphs)
	return out
}
