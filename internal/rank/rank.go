// Package rank scores headings against a persona and job-to-be-done.
//
// Scoring is a coarse two-tier keyword overlap: a heading whose normalised
// text contains any normalised keyword is elevated, everything else stays at
// the baseline tier.
package rank

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/docoutline/internal/doctree"
)

const (
	TierBaseline = 1
	TierElevated = 3
)

// Section is a heading paired with the document it came from.
type Section struct {
	Heading  doctree.HeadingCandidate
	Document string
}

// Normalize lowercases s, folds accents and drops every rune outside a-z0-9.
func Normalize(s string) string {
	var sb strings.Builder
	for _, r := range norm.NFKD.String(s) {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// NormalizeAll normalises keywords and drops those left empty.
func NormalizeAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if n := Normalize(k); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// IntentKeywords merges the normalised keywords of every intent.
func IntentKeywords(intents ...Intent) []string {
	var raw []string
	for _, in := range intents {
		raw = append(raw, in.Keywords()...)
	}
	return NormalizeAll(raw)
}

// Rank scores sections against already-normalised keywords. The result is
// ordered by tier, highest first; sections within a tier keep their input
// order.
func Rank(sections []Section, keywords []string) []doctree.RankedHeading {
	out := make([]doctree.RankedHeading, 0, len(sections))
	for _, s := range sections {
		out = append(out, doctree.RankedHeading{
			HeadingCandidate: s.Heading,
			ImportanceRank:   score(s.Heading.Text(), keywords),
			Document:         s.Document,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ImportanceRank > out[j].ImportanceRank
	})
	return out
}

func score(text string, keywords []string) int {
	n := Normalize(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(n, kw) {
			return TierElevated
		}
	}
	return TierBaseline
}
