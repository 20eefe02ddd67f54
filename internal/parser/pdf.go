package parser

import (
	"bytes"
	"fmt"
	"io"
	"math"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/extract"
)

// Letter size, used when a page declares no usable MediaBox.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// PDFParser handles PDF files. It reads glyphs with ledongthuc/pdf and, when
// FallbackPdfcpu is set, retries with pdfcpu if that reader cannot open the
// file or finds no text at all.
type PDFParser struct {
	FallbackPdfcpu bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	doc, err := readWithLedongthuc(data, filename)
	if err == nil && (hasFragments(doc) || !p.FallbackPdfcpu) {
		return doc, nil
	}
	if !p.FallbackPdfcpu {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	fallback, ferr := readWithPdfcpu(data, filename)
	if ferr != nil {
		if err == nil {
			return doc, nil
		}
		return nil, fmt.Errorf("open pdf: %w (pdfcpu: %v)", err, ferr)
	}
	return fallback, nil
}

func hasFragments(doc *doctree.Document) bool {
	for _, pg := range doc.Pages {
		if len(pg.Fragments) > 0 {
			return true
		}
	}
	return false
}

func readWithLedongthuc(data []byte, filename string) (doc *doctree.Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	doc = &doctree.Document{Name: filename}
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		pg := doctree.Page{Number: i, Width: defaultPageWidth, Height: defaultPageHeight}
		if !page.V.IsNull() {
			x0, top, w, h := mediaBox(page.V)
			pg.Width, pg.Height = w, h
			pg.Fragments = pageFragments(page, i, x0, top)
		}
		doc.Pages = append(doc.Pages, pg)
	}
	return doc, nil
}

// mediaBox resolves the page box through the Parent chain. It returns the
// box's left edge, top edge, width and height.
func mediaBox(v pdflib.Value) (x0, top, width, height float64) {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			llx, lly := box.Index(0).Float64(), box.Index(1).Float64()
			urx, ury := box.Index(2).Float64(), box.Index(3).Float64()
			x0, x1 := math.Min(llx, urx), math.Max(llx, urx)
			y0, y1 := math.Min(lly, ury), math.Max(lly, ury)
			if x1-x0 > 0 && y1-y0 > 0 {
				return x0, y1, x1 - x0, y1 - y0
			}
		}
		v = v.Key("Parent")
	}
	return 0, defaultPageHeight, defaultPageWidth, defaultPageHeight
}

// pageFragments converts the page glyph stream into fragments, merging glyphs
// that continue each other in the same font. A page whose content cannot be
// decoded yields no fragments.
func pageFragments(page pdflib.Page, num int, x0, top float64) (frags []doctree.TextFragment) {
	defer func() {
		if recover() != nil {
			frags = nil
		}
	}()

	for _, t := range page.Content().Text {
		if t.S == "" {
			continue
		}
		f := doctree.TextFragment{
			Text:     t.S,
			FontSize: t.FontSize,
			FontName: t.Font,
			Bold:     extract.IsBoldFont(t.Font),
			Box:      doctree.BoundingBox{X0: t.X - x0, X1: t.X - x0 + t.W, Top: top - t.Y},
			Page:     num,
		}
		if n := len(frags); n > 0 && continues(frags[n-1], f) {
			frags[n-1].Text += f.Text
			frags[n-1].Box.X1 = f.Box.X1
			continue
		}
		frags = append(frags, f)
	}
	return frags
}

// continues reports whether next directly follows prev on the same baseline
// in the same font.
func continues(prev, next doctree.TextFragment) bool {
	if prev.FontName != next.FontName || prev.FontSize != next.FontSize {
		return false
	}
	if math.Abs(prev.Box.Top-next.Box.Top) > 0.01 {
		return false
	}
	gap := next.Box.X0 - prev.Box.X1
	return gap >= -0.5 && gap <= prev.FontSize*0.1
}
