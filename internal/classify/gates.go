package classify

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Gates are the accept/reject rules applied around the policy.
type Gates struct {
	MinLength int

	// ExcludeBodyShape rejects lines that start with a digit or end in ':' or '.'.
	ExcludeBodyShape bool

	// MinSignals, when positive, is how many positive signals an accepted
	// H1-H3 line must show to be kept.
	MinSignals int

	// PromoteKeywords turns a policy-rejected keyword line into an H3 when it
	// is also bold, uppercase or centred.
	PromoteKeywords bool

	Keywords []string

	// CenterTolerance is the allowed offset from the page centre as a
	// fraction of page width.
	CenterTolerance float64
}

// DefaultKeywords name the usual structural sections of a document.
var DefaultKeywords = []string{
	"introduction", "overview", "background", "summary", "abstract",
	"conclusion", "conclusions", "references", "appendix", "acknowledgements",
	"table of contents", "methodology", "results", "discussion",
}

// DefaultGates returns the gates used when nothing is configured.
func DefaultGates() Gates {
	return Gates{
		MinLength:       4,
		Keywords:        DefaultKeywords,
		CenterTolerance: 0.05,
	}
}

// Seen is the per-document set of heading texts already emitted.
type Seen map[string]bool

// NewSeen returns an empty set. Use one per document.
func NewSeen() Seen {
	return make(Seen)
}

// Add records text and reports whether it was new.
func (s Seen) Add(text string) bool {
	key := dedupKey(text)
	if s[key] {
		return false
	}
	s[key] = true
	return true
}

// Has reports whether text was already recorded.
func (s Seen) Has(text string) bool {
	return s[dedupKey(text)]
}

func dedupKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func tooShort(text string, min int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < min
}

// bodyShaped matches numbered list items and sentence fragments.
func bodyShaped(text string) bool {
	text = strings.TrimSpace(text)
	first, _ := utf8.DecodeRuneInString(text)
	if unicode.IsDigit(first) {
		return true
	}
	return strings.HasSuffix(text, ":") || strings.HasSuffix(text, ".")
}

// signals counts the positive heading cues a line shows.
func (g Gates) signals(line doctree.Line) int {
	n := 0
	for _, ok := range []bool{
		line.Bold,
		isUpper(line.Text),
		isTitleCase(line.Text),
		g.matchesKeyword(line.Text),
		g.centered(line),
	} {
		if ok {
			n++
		}
	}
	return n
}

func (g Gates) promotable(line doctree.Line) bool {
	if !g.matchesKeyword(line.Text) {
		return false
	}
	return line.Bold || isUpper(line.Text) || g.centered(line)
}

// matchesKeyword reports whether the line, stripped of leading numbering,
// starts with a vocabulary keyword.
func (g Gates) matchesKeyword(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimLeftFunc(t, func(r rune) bool {
		return unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	for _, kw := range g.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || !strings.HasPrefix(t, kw) {
			continue
		}
		rest := t[len(kw):]
		if rest == "" {
			return true
		}
		r, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func (g Gates) centered(line doctree.Line) bool {
	if line.PageWidth <= 0 || line.Box.X1 <= line.Box.X0 {
		return false
	}
	mid := (line.Box.X0 + line.Box.X1) / 2
	return math.Abs(mid-line.PageWidth/2) <= g.CenterTolerance*line.PageWidth
}

func isUpper(text string) bool {
	letters := 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters > 0
}

// isTitleCase is true when every word of four or more letters starts with
// an upper-case letter. Short words (of, and, the) are free.
func isTitleCase(text string) bool {
	words := 0
	for _, w := range strings.Fields(text) {
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsLetter(r) {
			continue
		}
		if utf8.RuneCountInString(w) >= 4 && !unicode.IsUpper(r) {
			return false
		}
		words++
	}
	return words > 0
}
