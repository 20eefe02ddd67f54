package extract

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// DefaultTolerance is the vertical distance within which two fragments are
// treated as sitting on the same visual line.
const DefaultTolerance = 1.0

// spaceGapRatio is the horizontal gap, relative to font size, above which
// two fragments on one line are separated by a space.
const spaceGapRatio = 0.3

var boldMarkers = []string{"bold", "black", "heavy"}

// IsBoldFont reports whether a font name carries a bold weight marker.
func IsBoldFont(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range boldMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// GroupLines merges a page's fragments into lines, top to bottom.
// Fragments need not arrive in reading order.
func GroupLines(page doctree.Page, tolerance float64) []doctree.Line {
	if len(page.Fragments) == 0 {
		return nil
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	frags := make([]doctree.TextFragment, len(page.Fragments))
	copy(frags, page.Fragments)
	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].Box.Top != frags[j].Box.Top {
			return frags[i].Box.Top < frags[j].Box.Top
		}
		return frags[i].Box.X0 < frags[j].Box.X0
	})

	var lines []doctree.Line
	start := 0
	anchor := frags[0].Box.Top
	for i := 1; i <= len(frags); i++ {
		if i < len(frags) && math.Abs(frags[i].Box.Top-anchor) <= tolerance {
			continue
		}
		if line, ok := buildLine(frags[start:i], page); ok {
			lines = append(lines, line)
		}
		if i < len(frags) {
			start = i
			anchor = frags[i].Box.Top
		}
	}
	return lines
}

// buildLine joins one bucket of fragments left to right.
func buildLine(bucket []doctree.TextFragment, page doctree.Page) (doctree.Line, bool) {
	frags := make([]doctree.TextFragment, len(bucket))
	copy(frags, bucket)
	sort.SliceStable(frags, func(i, j int) bool { return frags[i].Box.X0 < frags[j].Box.X0 })

	var sb strings.Builder
	var lastX1 float64
	var boldRunes, plainRunes int
	sizes := make([]float64, 0, len(frags))
	box := doctree.BoundingBox{X0: math.Inf(1), X1: math.Inf(-1), Top: math.Inf(1)}

	for i, f := range frags {
		if f.Text == "" {
			continue
		}
		if i > 0 && sb.Len() > 0 && f.Box.X0-lastX1 > f.FontSize*spaceGapRatio && !endsWithSpace(sb.String()) && !startsWithSpace(f.Text) {
			sb.WriteByte(' ')
		}
		sb.WriteString(f.Text)
		lastX1 = f.Box.X1

		n := utf8.RuneCountInString(strings.TrimSpace(f.Text))
		if f.Bold {
			boldRunes += n
		} else {
			plainRunes += n
		}
		sizes = append(sizes, f.FontSize)
		box.X0 = math.Min(box.X0, f.Box.X0)
		box.X1 = math.Max(box.X1, f.Box.X1)
		box.Top = math.Min(box.Top, f.Box.Top)
	}
	if len(sizes) == 0 {
		return doctree.Line{}, false
	}

	return doctree.Line{
		Text:      collapseSpaces(sb.String()),
		FontSize:  RoundSize(median(sizes)),
		Bold:      boldRunes > plainRunes,
		Box:       box,
		Page:      page.Number,
		PageWidth: page.Width,
		Fragments: frags,
	}, true
}

// RoundSize rounds a font size to 0.1pt so near-equal sizes compare equal.
func RoundSize(size float64) float64 {
	return math.Round(size*10) / 10
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
