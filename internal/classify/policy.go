package classify

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Policy assigns a heading level from typography alone.
type Policy interface {
	Classify(line doctree.Line, profile FontProfile) (doctree.Level, bool)
}

const (
	StrategyRelative = "relative"
	StrategyAbsolute = "absolute"
)

// Absolute classifies by fixed font-size cutoffs. It never yields Title.
type Absolute struct {
	H1 float64
	H2 float64
	H3 float64

	// H2RequiresBold demotes non-bold lines in the H2 band to H3.
	H2RequiresBold bool
}

// DefaultAbsolute returns the 17/15/13pt cutoffs.
func DefaultAbsolute() Absolute {
	return Absolute{H1: 17, H2: 15, H3: 13}
}

func (a Absolute) Classify(line doctree.Line, _ FontProfile) (doctree.Level, bool) {
	switch size := line.FontSize; {
	case size >= a.H1:
		return doctree.LevelH1, true
	case size >= a.H2 && (line.Bold || !a.H2RequiresBold):
		return doctree.LevelH2, true
	case size >= a.H3:
		return doctree.LevelH3, true
	}
	return "", false
}

// Relative maps the document's size ranks onto levels: the largest size is
// the Title, the next three are H1-H3, everything smaller is body text.
type Relative struct{}

var rankLevels = []doctree.Level{doctree.LevelTitle, doctree.LevelH1, doctree.LevelH2, doctree.LevelH3}

func (Relative) Classify(line doctree.Line, profile FontProfile) (doctree.Level, bool) {
	r := profile.Rank(line.FontSize)
	if r < 0 || r >= len(rankLevels) {
		return "", false
	}
	return rankLevels[r], true
}

// NewPolicy resolves a strategy name.
func NewPolicy(strategy string, abs Absolute) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyRelative:
		return Relative{}, nil
	case StrategyAbsolute:
		return abs, nil
	default:
		return nil, fmt.Errorf("unknown classification strategy: %q", strategy)
	}
}
