package classify

import (
	"sort"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// FontProfile is the ranking of distinct font sizes in one document,
// largest first. Build it with Survey before classifying any line.
type FontProfile struct {
	Sizes []float64
}

// Survey collects the distinct line sizes of a whole document. Lines with no
// visible text do not contribute.
func Survey(pages [][]doctree.Line) FontProfile {
	seen := make(map[float64]bool)
	var sizes []float64
	for _, lines := range pages {
		for _, l := range lines {
			if isBlank(l.Text) || seen[l.FontSize] {
				continue
			}
			seen[l.FontSize] = true
			sizes = append(sizes, l.FontSize)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))
	return FontProfile{Sizes: sizes}
}

// Rank returns the index of size among the surveyed sizes, or -1.
func (p FontProfile) Rank(size float64) int {
	for i, s := range p.Sizes {
		if s == size {
			return i
		}
	}
	return -1
}

// Max returns the largest surveyed size, or 0 for an empty profile.
func (p FontProfile) Max() float64 {
	if len(p.Sizes) == 0 {
		return 0
	}
	return p.Sizes[0]
}
