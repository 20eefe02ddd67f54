package parser

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

// textRun is one string shown by a text-showing operator, positioned in
// PDF user space (origin bottom-left). Font is the resource name from Tf.
type textRun struct {
	Font string
	Size float64
	X    float64
	Y    float64
	W    float64
	Text string
}

// Average glyph advance as a fraction of the font size. Without font metrics
// this only has to be good enough for gap detection between runs.
const advanceRatio = 0.5

type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func (m matrix) translate(tx, ty float64) matrix {
	m[4] += tx*m[0] + ty*m[2]
	m[5] += tx*m[1] + ty*m[3]
	return m
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokName
	tokString
	tokOperator
	tokArrayStart
	tokArrayEnd
)

type token struct {
	kind tokenKind
	num  float64
	str  string
}

// textState tracks the subset of the PDF text state needed for positions
// and sizes. The CTM is ignored.
type textState struct {
	font    string
	size    float64
	leading float64
	tm      matrix
	lm      matrix
	runs    []textRun
}

// parseContent walks a page content stream and returns the text it shows.
func parseContent(data []byte) []textRun {
	st := &textState{tm: identity, lm: identity}
	sc := &scanner{data: data}

	var operands []token
	var array []token
	inArray := false

	for {
		tok, ok := sc.next()
		if !ok {
			break
		}
		switch tok.kind {
		case tokArrayStart:
			inArray = true
			array = array[:0]
		case tokArrayEnd:
			inArray = false
		case tokOperator:
			if tok.str == "ID" {
				sc.skipInlineImage()
			}
			st.apply(tok.str, operands, array)
			operands = operands[:0]
			array = array[:0]
		default:
			if inArray {
				array = append(array, tok)
			} else {
				operands = append(operands, tok)
			}
		}
	}
	return st.runs
}

func (st *textState) apply(op string, args, array []token) {
	num := func(i int) float64 {
		if i < len(args) && args[i].kind == tokNumber {
			return args[i].num
		}
		return 0
	}
	lastString := func() (string, bool) {
		if n := len(args); n > 0 && args[n-1].kind == tokString {
			return args[n-1].str, true
		}
		return "", false
	}

	switch op {
	case "BT":
		st.tm, st.lm = identity, identity
	case "Tf":
		if len(args) >= 2 && args[0].kind == tokName {
			st.font = args[0].str
			st.size = num(1)
		}
	case "TL":
		st.leading = num(0)
	case "Td":
		st.moveLine(num(0), num(1))
	case "TD":
		st.leading = -num(1)
		st.moveLine(num(0), num(1))
	case "Tm":
		if len(args) >= 6 {
			st.lm = matrix{num(0), num(1), num(2), num(3), num(4), num(5)}
			st.tm = st.lm
		}
	case "T*":
		st.moveLine(0, -st.leading)
	case "Tj":
		if s, ok := lastString(); ok {
			st.show(s)
		}
	case "'", "\"":
		st.moveLine(0, -st.leading)
		if s, ok := lastString(); ok {
			st.show(s)
		}
	case "TJ":
		for _, el := range array {
			switch el.kind {
			case tokString:
				st.show(el.str)
			case tokNumber:
				st.tm = st.tm.translate(-el.num/1000*st.size, 0)
			}
		}
	}
}

func (st *textState) moveLine(tx, ty float64) {
	st.lm = st.lm.translate(tx, ty)
	st.tm = st.lm
}

func (st *textState) show(s string) {
	n := len([]rune(s))
	if n == 0 {
		return
	}
	scale := math.Hypot(st.tm[2], st.tm[3])
	if scale == 0 {
		scale = 1
	}
	advance := float64(n) * st.size * advanceRatio
	x, y := st.tm[4], st.tm[5]
	st.tm = st.tm.translate(advance, 0)
	st.runs = append(st.runs, textRun{
		Font: st.font,
		Size: st.size * scale,
		X:    x,
		Y:    y,
		W:    st.tm[4] - x,
		Text: s,
	})
}

type scanner struct {
	data []byte
	pos  int
}

func isWhite(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == 0
}

func isDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func (s *scanner) next() (token, bool) {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isWhite(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		case c == '[':
			s.pos++
			return token{kind: tokArrayStart}, true
		case c == ']':
			s.pos++
			return token{kind: tokArrayEnd}, true
		case c == '(':
			s.pos++
			return token{kind: tokString, str: s.literal()}, true
		case c == '<':
			if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
				s.pos += 2
				continue
			}
			s.pos++
			return token{kind: tokString, str: s.hex()}, true
		case c == '>':
			s.pos++
		case c == '/':
			s.pos++
			return token{kind: tokName, str: s.word()}, true
		case c == '{' || c == '}' || c == ')':
			s.pos++
		default:
			w := s.word()
			if w == "" {
				s.pos++
				continue
			}
			if f, err := strconv.ParseFloat(w, 64); err == nil {
				return token{kind: tokNumber, num: f}, true
			}
			return token{kind: tokOperator, str: w}, true
		}
	}
	return token{}, false
}

func (s *scanner) word() string {
	start := s.pos
	for s.pos < len(s.data) && !isWhite(s.data[s.pos]) && !isDelim(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// literal reads a parenthesised string; the opening paren is consumed.
func (s *scanner) literal() string {
	var raw []byte
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= len(s.data) {
				break
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				raw = append(raw, '\n')
			case 'r':
				raw = append(raw, '\r')
			case 't':
				raw = append(raw, '\t')
			case 'b':
				raw = append(raw, '\b')
			case 'f':
				raw = append(raw, '\f')
			case '\r', '\n':
				if e == '\r' && s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; k++ {
						val = val*8 + int(s.data[s.pos]-'0')
						s.pos++
					}
					raw = append(raw, byte(val))
				} else {
					raw = append(raw, e)
				}
			}
		case '(':
			depth++
			raw = append(raw, c)
		case ')':
			depth--
			if depth == 0 {
				return decodeText(raw)
			}
			raw = append(raw, c)
		default:
			raw = append(raw, c)
		}
	}
	return decodeText(raw)
}

// hex reads a hex string; the opening angle bracket is consumed.
func (s *scanner) hex() string {
	var raw []byte
	var hi byte
	half := false
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			break
		}
		v, ok := hexVal(c)
		if !ok {
			continue
		}
		if half {
			raw = append(raw, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		raw = append(raw, hi<<4)
	}
	return decodeText(raw)
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// skipInlineImage advances past the binary data of an inline image up to and
// including its EI marker.
func (s *scanner) skipInlineImage() {
	for s.pos+2 < len(s.data) {
		if isWhite(s.data[s.pos]) && s.data[s.pos+1] == 'E' && s.data[s.pos+2] == 'I' &&
			(s.pos+3 == len(s.data) || isWhite(s.data[s.pos+3])) {
			s.pos += 3
			return
		}
		s.pos++
	}
	s.pos = len(s.data)
}

// decodeText interprets string bytes as UTF-16BE when they carry a byte order
// mark and as Latin-1 otherwise. Control characters are dropped.
func decodeText(raw []byte) string {
	var sb strings.Builder
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		units := make([]uint16, 0, len(raw)/2)
		for i := 2; i+1 < len(raw); i += 2 {
			units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
		}
		for _, r := range utf16.Decode(units) {
			if r >= 0x20 {
				sb.WriteRune(r)
			}
		}
		return sb.String()
	}
	for _, b := range raw {
		if b >= 0x20 || b == '\t' {
			sb.WriteRune(rune(b))
		}
	}
	return sb.String()
}
