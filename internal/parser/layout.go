package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Formats without typography are laid out on a single letter-size page with
// fixed sizes per heading level, so the classifier treats them like a PDF.
const (
	syntheticWidth  = 612.0
	syntheticHeight = 792.0
	syntheticMargin = 72.0
	bodySize        = 11.0
	titleSize       = 28.0

	boldFont    = "Synthetic-Bold"
	regularFont = "Synthetic-Regular"
)

// headingSizes is indexed by heading level 1-6.
var headingSizes = [...]float64{0, 24, 20, 18, 16, 14, 12}

// HeadingSize returns the synthetic font size for heading level 1-6.
func HeadingSize(level int) float64 {
	if level < 1 || level >= len(headingSizes) {
		return bodySize
	}
	return headingSizes[level]
}

type layout struct {
	page doctree.Page
	top  float64
}

func newLayout() *layout {
	return &layout{
		page: doctree.Page{Number: 1, Width: syntheticWidth, Height: syntheticHeight},
		top:  syntheticMargin,
	}
}

func (l *layout) title(text string) {
	l.emit(text, titleSize, true)
}

func (l *layout) heading(level int, text string) {
	l.emit(text, HeadingSize(level), true)
}

func (l *layout) body(text string) {
	for _, line := range strings.Split(text, "\n") {
		l.emit(line, bodySize, false)
	}
}

func (l *layout) emit(text string, size float64, bold bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	font := regularFont
	if bold {
		font = boldFont
	}
	width := float64(utf8.RuneCountInString(text)) * size * 0.5
	l.page.Fragments = append(l.page.Fragments, doctree.TextFragment{
		Text:     text,
		FontSize: size,
		FontName: font,
		Bold:     bold,
		Box:      doctree.BoundingBox{X0: syntheticMargin, X1: syntheticMargin + width, Top: l.top},
		Page:     1,
	})
	l.top += size * 1.5
}

func (l *layout) document(name string) *doctree.Document {
	return &doctree.Document{Name: name, Pages: []doctree.Page{l.page}}
}
