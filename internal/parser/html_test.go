package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_TitleAndHeadings(t *testing.T) {
	input := `<html><head><title>  Field
Guide </title><style>p { color: red }</style></head>
<body>
<nav>Home | About</nav>
<h1>Getting Started</h1>
<p>Welcome to the guide.</p>
<h3>Install <em>steps</em></h3>
<script>var x = 1;</script>
</body></html>`

	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "guide.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frags := doc.Pages[0].Fragments
	want := []struct {
		text string
		size float64
	}{
		{"Field Guide", titleSize},
		{"Getting Started", 24},
		{"Welcome to the guide.", bodySize},
		{"Install steps", 18},
	}
	if len(frags) != len(want) {
		t.Fatalf("expected %d fragments, got %v", len(want), fragmentTexts(doc))
	}
	for i, w := range want {
		if frags[i].Text != w.text || frags[i].FontSize != w.size {
			t.Errorf("fragment %d: expected %q at %v, got %q at %v", i, w.text, w.size, frags[i].Text, frags[i].FontSize)
		}
	}
}

func TestHTMLParser_NoBody(t *testing.T) {
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader("<h2>Only Heading</h2>"), "x.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := fragmentTexts(doc)
	if len(got) != 1 || got[0] != "Only Heading" {
		t.Errorf("expected the heading fragment, got %q", got)
	}
}

func TestDocxHeadingLevel(t *testing.T) {
	cases := map[string]int{
		"Heading1":  1,
		"heading 3": 3,
		"Heading6":  6,
		"Heading7":  0,
		"Heading10": 0,
		"Normal":    0,
		"":          0,
	}
	for style, want := range cases {
		if got := docxHeadingLevel(style); got != want {
			t.Errorf("docxHeadingLevel(%q): expected %d, got %d", style, want, got)
		}
	}
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.pdf", "B.PDF", "c.md", "d.markdown", "e.html", "f.htm", "g.docx"} {
		if _, err := ForFile(name, Options{}); err != nil {
			t.Errorf("ForFile(%q): unexpected error %v", name, err)
		}
		if !IsSupportedExtension(name) {
			t.Errorf("IsSupportedExtension(%q): expected true", name)
		}
	}
	if _, err := ForFile("notes.txt", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
	p, _ := ForFile("x.pdf", Options{PDFFallback: true})
	if pp, ok := p.(*PDFParser); !ok || !pp.FallbackPdfcpu {
		t.Errorf("expected PDF parser with fallback, got %#v", p)
	}
}
