// Package classify decides which lines are headings and at what level.
//
// Classification is two-pass: Survey builds a FontProfile over the whole
// document, then Classify is called per line with that profile and the
// document's Seen set.
package classify

import (
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Classifier combines a Policy with the accept/reject gates.
type Classifier struct {
	Policy Policy
	Gates  Gates
}

// New returns a Classifier. A nil policy means Relative.
func New(policy Policy, gates Gates) *Classifier {
	if policy == nil {
		policy = Relative{}
	}
	return &Classifier{Policy: policy, Gates: gates}
}

// Classify returns the heading candidate for line, or false when the line
// is body text. Accepted text is recorded in seen.
func (c *Classifier) Classify(line doctree.Line, profile FontProfile, seen Seen) (doctree.HeadingCandidate, bool) {
	if isBlank(line.Text) {
		return doctree.HeadingCandidate{}, false
	}
	line.Text = strings.TrimSpace(line.Text)
	if tooShort(line.Text, c.Gates.MinLength) {
		return doctree.HeadingCandidate{}, false
	}
	if c.Gates.ExcludeBodyShape && bodyShaped(line.Text) {
		return doctree.HeadingCandidate{}, false
	}

	level, ok := c.Policy.Classify(line, profile)
	switch {
	case ok && level != doctree.LevelTitle && c.Gates.MinSignals > 0:
		if c.Gates.signals(line) < c.Gates.MinSignals {
			return doctree.HeadingCandidate{}, false
		}
	case !ok && c.Gates.PromoteKeywords && c.Gates.promotable(line):
		level, ok = doctree.LevelH3, true
	}
	if !ok {
		return doctree.HeadingCandidate{}, false
	}

	if seen != nil && !seen.Add(line.Text) {
		return doctree.HeadingCandidate{}, false
	}
	return doctree.HeadingCandidate{Line: line, Level: level, Page: line.Page}, true
}
