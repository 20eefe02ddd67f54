package doctree

import "strings"

// BoundingBox locates a fragment on its page. Top grows downward from the
// top edge of the page.
type BoundingBox struct {
	X0  float64
	X1  float64
	Top float64
}

// TextFragment is the atomic unit a source reader produces.
type TextFragment struct {
	Text     string
	FontSize float64
	FontName string
	Bold     bool
	Box      BoundingBox
	Page     int
}

// Page holds the fragments of one source page.
type Page struct {
	Number    int // 1-based
	Width     float64
	Height    float64
	Fragments []TextFragment
}

// Document is everything a parser read from one source file.
type Document struct {
	Name  string // Source filename, including extension
	Pages []Page
}

// Line is a run of fragments sharing a vertical offset, joined left to right.
type Line struct {
	Text      string
	FontSize  float64 // Median fragment size, rounded to 0.1pt
	Bold      bool
	Box       BoundingBox
	Page      int
	PageWidth float64
	Fragments []TextFragment
}

// Level is the structural rank assigned to a heading.
type Level string

const (
	LevelTitle Level = "Title"
	LevelH1    Level = "H1"
	LevelH2    Level = "H2"
	LevelH3    Level = "H3"
)

// Depth returns 0 for Title, 1-3 for H1-H3 and -1 for anything else.
func (l Level) Depth() int {
	switch l {
	case LevelTitle:
		return 0
	case LevelH1:
		return 1
	case LevelH2:
		return 2
	case LevelH3:
		return 3
	}
	return -1
}

// HeadingCandidate is a line the classifier accepted, with its level.
type HeadingCandidate struct {
	Line  Line
	Level Level
	Page  int
}

// Text returns the heading text.
func (h HeadingCandidate) Text() string {
	return h.Line.Text
}

// Outline is the title plus ordered headings of one document.
type Outline struct {
	Title string
	// TitleFromText is set when Title came from title-level lines on page 1
	// rather than from the filename.
	TitleFromText bool
	Headings      []HeadingCandidate
}

// RankedHeading is a heading scored against a persona/job intent.
type RankedHeading struct {
	HeadingCandidate
	ImportanceRank int
	Document       string
}

// Stem strips directory and extension from a source filename.
func Stem(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	if i := strings.LastIndexByte(filename, '.'); i > 0 {
		filename = filename[:i]
	}
	return filename
}
