package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/docoutline/internal/doctree"
)

func fragmentTexts(doc *doctree.Document) []string {
	var out []string
	for _, pg := range doc.Pages {
		for _, f := range pg.Fragments {
			out = append(out, f.Text)
		}
	}
	return out
}

func TestMarkdownParser_HeadingSizes(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "doc.md" {
		t.Errorf("expected name %q, got %q", "doc.md", doc.Name)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}

	frags := doc.Pages[0].Fragments
	want := []struct {
		text string
		size float64
		bold bool
	}{
		{"Title", 24, true},
		{"Intro text.", 11, false},
		{"Section A", 20, true},
		{"Section A content.", 11, false},
		{"Subsection A1", 18, true},
	}
	if len(frags) != len(want) {
		t.Fatalf("expected %d fragments, got %d: %v", len(want), len(frags), fragmentTexts(doc))
	}
	for i, w := range want {
		f := frags[i]
		if f.Text != w.text || f.FontSize != w.size || f.Bold != w.bold {
			t.Errorf("fragment %d: expected %+v, got text=%q size=%v bold=%v", i, w, f.Text, f.FontSize, f.Bold)
		}
		if f.Page != 1 {
			t.Errorf("fragment %d: expected page 1, got %d", i, f.Page)
		}
		if i > 0 && f.Box.Top <= frags[i-1].Box.Top {
			t.Errorf("fragment %d: expected top to increase, got %v after %v", i, f.Box.Top, frags[i-1].Box.Top)
		}
	}
}

func TestMarkdownParser_TextNotDuplicated(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader("Just *some* plain text.\n"), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := fragmentTexts(doc)
	if len(got) != 1 || got[0] != "Just some plain text." {
		t.Errorf("expected single paragraph fragment, got %q", got)
	}
}

func TestMarkdownParser_CodeBlockLines(t *testing.T) {
	input := "## Endpoints\n\n```\nGET /api/users\nPOST /api/users\n```\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := fragmentTexts(doc)
	want := []string{"Endpoints", "GET /api/users", "POST /api/users"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 1 || len(doc.Pages[0].Fragments) != 0 {
		t.Errorf("expected one empty page, got %+v", doc.Pages)
	}
}

func TestHeadingSize(t *testing.T) {
	if HeadingSize(1) <= HeadingSize(2) || HeadingSize(6) <= bodySize {
		t.Error("expected heading sizes to decrease with level and stay above body size")
	}
	if HeadingSize(0) != bodySize || HeadingSize(7) != bodySize {
		t.Error("expected out-of-range levels to map to body size")
	}
}
