// Package outline turns a document's classified lines into its Outline.
package outline

import (
	"strings"

	"github.com/dgallion1/docoutline/internal/classify"
	"github.com/dgallion1/docoutline/internal/doctree"
)

// Assemble classifies every line of a document, page by page, and builds its
// outline. pages[i] holds the lines of page i+1 in top-to-bottom order.
//
// The title defaults to the filename stem. Title-level candidates never
// appear in Headings; those found on page 1 become the title.
func Assemble(name string, pages [][]doctree.Line, c *classify.Classifier) doctree.Outline {
	profile := classify.Survey(pages)
	seen := classify.NewSeen()

	out := doctree.Outline{Title: doctree.Stem(name), Headings: []doctree.HeadingCandidate{}}
	var titleParts []string

	for _, lines := range pages {
		for _, l := range lines {
			h, ok := c.Classify(l, profile, seen)
			if !ok {
				continue
			}
			if h.Level == doctree.LevelTitle {
				if h.Page == 1 {
					titleParts = append(titleParts, h.Text())
				}
				continue
			}
			out.Headings = append(out.Headings, h)
		}
	}

	if len(titleParts) > 0 {
		out.Title = strings.Join(titleParts, " ")
		out.TitleFromText = true
	}
	return out
}
