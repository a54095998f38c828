package pdf

import (
	"math"
	"strconv"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Glyph metrics are not read from fonts; every glyph is assumed to be
// half an em wide, with the ascent at 0.8 em.
const (
	glyphWidthEm = 0.5
	ascentEm     = 0.8
)

// TextRun is a run of text on one baseline, in PDF user space
// (origin bottom-left, units of points).
type TextRun struct {
	Text string

	// X and Y locate the start of the baseline.
	X, Y float64

	Size  float64
	Width float64
}

// Box converts the run to page pixels for a page of pageHeight points
// drawn at scale pixels per point.
func (r TextRun) Box(pageHeight, scale float64) domain.Box {
	return domain.Box{
		Left:   r.X * scale,
		Top:    (pageHeight - r.Y - r.Size*ascentEm) * scale,
		Width:  r.Width * scale,
		Height: r.Size * scale,
	}
}

type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m × n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func translate(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

// textState follows the text-positioning operators of one content stream.
type textState struct {
	ctm      matrix
	saved    []matrix
	tm, tlm  matrix
	size     float64
	leading  float64
	runs     []TextRun
	operands []token
}

// ParseTextRuns interprets the text operators of a page content stream and
// returns its text grouped into runs, one per contiguous stretch of a line.
func ParseTextRuns(content []byte) []TextRun {
	st := &textState{ctm: identity, tm: identity, tlm: identity, size: 1}
	lex := lexer{src: content}

	for {
		tok, ok := lex.next()
		if !ok {
			break
		}
		if tok.kind != tokOperator {
			st.operands = append(st.operands, tok)
			continue
		}
		st.apply(tok.text)
		st.operands = st.operands[:0]
	}

	return mergeRuns(st.runs)
}

func (st *textState) apply(op string) {
	switch op {
	case "q":
		st.saved = append(st.saved, st.ctm)
	case "Q":
		if n := len(st.saved); n > 0 {
			st.ctm = st.saved[n-1]
			st.saved = st.saved[:n-1]
		}
	case "cm":
		if m, ok := st.matrixOperand(); ok {
			st.ctm = m.mul(st.ctm)
		}
	case "BT":
		st.tm, st.tlm = identity, identity
	case "Tf":
		if n, ok := st.lastNumbers(1); ok {
			st.size = n[0]
		}
	case "TL":
		if n, ok := st.lastNumbers(1); ok {
			st.leading = n[0]
		}
	case "Td", "TD":
		n, ok := st.lastNumbers(2)
		if !ok {
			return
		}
		if op == "TD" {
			st.leading = -n[1]
		}
		st.moveLine(n[0], n[1])
	case "Tm":
		if m, ok := st.matrixOperand(); ok {
			st.tm, st.tlm = m, m
		}
	case "T*":
		st.moveLine(0, -st.leading)
	case "Tj":
		st.showOperands()
	case "'":
		st.moveLine(0, -st.leading)
		st.showOperands()
	case "\"":
		// aw ac (string) "
		st.moveLine(0, -st.leading)
		if n := len(st.operands); n > 0 {
			st.operands = st.operands[n-1:]
		}
		st.showOperands()
	case "TJ":
		st.showOperands()
	}
}

func (st *textState) moveLine(tx, ty float64) {
	st.tlm = translate(tx, ty).mul(st.tlm)
	st.tm = st.tlm
}

// lastNumbers returns the final n numeric operands.
func (st *textState) lastNumbers(n int) ([]float64, bool) {
	var nums []float64
	for _, t := range st.operands {
		if t.kind == tokNumber {
			nums = append(nums, t.num)
		}
	}
	if len(nums) < n {
		return nil, false
	}
	return nums[len(nums)-n:], true
}

func (st *textState) matrixOperand() (matrix, bool) {
	nums, ok := st.lastNumbers(6)
	if !ok {
		return matrix{}, false
	}
	return matrix{nums[0], nums[1], nums[2], nums[3], nums[4], nums[5]}, true
}

// showOperands shows every string operand, applying TJ kerning numbers.
func (st *textState) showOperands() {
	var sb strings.Builder
	render := st.tm.mul(st.ctm)
	startX, startY := render[4], render[5]
	emScale := math.Hypot(render[2], render[3])
	if emScale == 0 {
		emScale = 1
	}

	var advance float64 // text space units
	for _, t := range st.operands {
		switch t.kind {
		case tokString:
			sb.WriteString(t.text)
			advance += float64(len([]rune(t.text))) * glyphWidthEm * st.size
		case tokNumber:
			// Inside TJ arrays numbers are thousandths of an em, subtracted
			shift := -t.num / 1000 * st.size
			advance += shift
			if shift > glyphWidthEm*st.size*0.5 {
				sb.WriteByte(' ')
			}
		}
	}

	st.tm = translate(advance, 0).mul(st.tm)

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return
	}
	xScale := math.Hypot(render[0], render[1])
	st.runs = append(st.runs, TextRun{
		Text:  text,
		X:     startX,
		Y:     startY,
		Size:  st.size * emScale,
		Width: advance * xScale,
	})
}

// mergeRuns joins runs that continue one another on the same baseline.
func mergeRuns(runs []TextRun) []TextRun {
	var out []TextRun
	for _, r := range runs {
		if n := len(out); n > 0 {
			prev := &out[n-1]
			gap := r.X - (prev.X + prev.Width)
			sameLine := math.Abs(prev.Y-r.Y) < prev.Size*0.2
			if sameLine && gap > -prev.Size && gap < prev.Size {
				if gap > prev.Size*0.2 && !strings.HasSuffix(prev.Text, " ") {
					prev.Text += " "
				}
				prev.Text += r.Text
				prev.Width = r.X + r.Width - prev.X
				continue
			}
		}
		out = append(out, r)
	}
	for i := range out {
		out[i].Text = strings.TrimSpace(out[i].Text)
	}
	return out
}

// ==================== Lexer ====================

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokName
	tokOperator
	tokOther
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

type lexer struct {
	src []byte
	pos int
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func (l *lexer) next() (token, bool) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
				l.pos++
			}
		case c == '(':
			l.pos++
			return token{kind: tokString, text: l.literal()}, true
		case c == '<':
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '<' {
				l.pos += 2
				return token{kind: tokOther, text: "<<"}, true
			}
			l.pos++
			return token{kind: tokString, text: l.hexString()}, true
		case c == '>':
			l.pos++
			if l.pos < len(l.src) && l.src[l.pos] == '>' {
				l.pos++
			}
			return token{kind: tokOther, text: ">>"}, true
		case c == '[' || c == ']' || c == '{' || c == '}':
			l.pos++
			return token{kind: tokOther, text: string(c)}, true
		case c == '/':
			l.pos++
			return token{kind: tokName, text: l.word()}, true
		default:
			w := l.word()
			if w == "" {
				l.pos++
				continue
			}
			if n, err := strconv.ParseFloat(w, 64); err == nil {
				return token{kind: tokNumber, num: n, text: w}, true
			}
			return token{kind: tokOperator, text: w}, true
		}
	}
	return token{}, false
}

func (l *lexer) word() string {
	start := l.pos
	for l.pos < len(l.src) && !isSpace(l.src[l.pos]) && !isDelimiter(l.src[l.pos]) {
		l.pos++
	}
	return string(l.src[start:l.pos])
}

// literal reads a (string) body; the opening paren is already consumed.
func (l *lexer) literal() string {
	var sb strings.Builder
	depth := 1
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
			sb.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return sb.String()
			}
			sb.WriteByte(c)
		case '\\':
			if l.pos >= len(l.src) {
				return sb.String()
			}
			e := l.src[l.pos]
			l.pos++
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2 && l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '7'; k++ {
						val = val*8 + int(l.src[l.pos]-'0')
						l.pos++
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(e)
				}
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// hexString reads a <hex> body; the opening bracket is already consumed.
// Two-byte strings are read as UTF-16BE, the usual encoding of CID fonts.
func (l *lexer) hexString() string {
	var digits []byte
	for l.pos < len(l.src) && l.src[l.pos] != '>' {
		if c := l.src[l.pos]; !isSpace(c) {
			digits = append(digits, c)
		}
		l.pos++
	}
	l.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	raw := make([]byte, 0, len(digits)/2)
	for i := 0; i+1 < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			return ""
		}
		raw = append(raw, byte(v))
	}

	if len(raw) >= 2 && len(raw)%2 == 0 && raw[0] == 0 {
		var sb strings.Builder
		for i := 0; i+1 < len(raw); i += 2 {
			sb.WriteRune(rune(raw[i])<<8 | rune(raw[i+1]))
		}
		return sb.String()
	}
	return string(raw)
}
