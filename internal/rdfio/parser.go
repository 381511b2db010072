package rdfio

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/provtmpl/internal/ir"
)

// parser holds the scanning state shared by the line-based and the
// abbreviated grammars. Positions are byte offsets into src; line and col
// track the current rune for error messages.
type parser struct {
	src    string
	pos    int
	line   int
	col    int
	format Format

	base     string
	prefixes *Prefixes

	graph  ir.Term
	graphs []ir.Term
	out    []ir.Statement

	anon     int
	explicit map[string]struct{}
}

func newParser(src string, format Format) *parser {
	return &parser{
		src:      src,
		line:     1,
		col:      1,
		format:   format,
		prefixes: NewPrefixes(),
		explicit: make(map[string]struct{}),
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return r
}

func (p *parser) peekAt(offset int) byte {
	if p.pos+offset >= len(p.src) {
		return 0
	}
	return p.src[p.pos+offset]
}

func (p *parser) next() rune {
	if p.eof() {
		return 0
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return r
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Format: p.format, Line: p.line, Column: p.col, Message: fmt.Sprintf(format, args...)}
}

// skipWS skips whitespace and comments.
func (p *parser) skipWS() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n':
			p.next()
		case '#':
			for !p.eof() && p.peek() != '\n' {
				p.next()
			}
		default:
			return
		}
	}
}

func (p *parser) expect(r rune) error {
	p.skipWS()
	if p.peek() != r {
		return p.errorf("expected %q, found %s", r, p.describe())
	}
	p.next()
	return nil
}

func (p *parser) describe() string {
	if p.eof() {
		return "end of input"
	}
	return strconv.QuoteRune(p.peek())
}

// keyword reports whether the case-insensitive word kw starts at the
// current position and is followed by a delimiter.
func (p *parser) keyword(kw string) bool {
	end := p.pos + len(kw)
	if end > len(p.src) || !strings.EqualFold(p.src[p.pos:end], kw) {
		return false
	}
	if end == len(p.src) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(p.src[end:])
	return !isNameChar(r) && r != ':'
}

func (p *parser) consume(n int) {
	for range n {
		p.next()
	}
}

func (p *parser) emit(s, pred, o ir.Term) {
	p.out = append(p.out, ir.Statement{Subject: s, Predicate: pred, Object: o, Graph: p.graph})
}

// iriRef reads <...> and resolves it against the base.
func (p *parser) iriRef() (string, error) {
	if p.peek() != '<' {
		return "", p.errorf("expected IRI, found %s", p.describe())
	}
	p.next()
	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated IRI")
		}
		r := p.next()
		switch r {
		case '>':
			return p.resolve(b.String())
		case '\\':
			u, err := p.uchar()
			if err != nil {
				return "", err
			}
			b.WriteRune(u)
		case ' ', '\t', '\n', '\r', '<', '"', '{', '}', '|', '^', '`':
			return "", p.errorf("invalid character %q in IRI", r)
		default:
			b.WriteRune(r)
		}
	}
}

func (p *parser) resolve(iri string) (string, error) {
	if p.base == "" || !p.format.Abbreviated() {
		return iri, nil
	}
	ref, err := url.Parse(iri)
	if err != nil {
		return "", p.errorf("invalid IRI %q: %v", iri, err)
	}
	if ref.IsAbs() {
		return iri, nil
	}
	base, err := url.Parse(p.base)
	if err != nil {
		return "", p.errorf("invalid base IRI %q: %v", p.base, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// uchar reads the u/U escape after a backslash.
func (p *parser) uchar() (rune, error) {
	var n int
	switch p.next() {
	case 'u':
		n = 4
	case 'U':
		n = 8
	default:
		return 0, p.errorf("invalid escape in IRI")
	}
	if p.pos+n > len(p.src) {
		return 0, p.errorf("truncated unicode escape")
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+n], 16, 32)
	if err != nil {
		return 0, p.errorf("invalid unicode escape %q", p.src[p.pos:p.pos+n])
	}
	p.consume(n)
	return rune(v), nil
}

// blankLabel reads _:label.
func (p *parser) blankLabel() (ir.Term, error) {
	if !strings.HasPrefix(p.src[p.pos:], "_:") {
		return ir.Term{}, p.errorf("expected blank node label")
	}
	p.consume(2)
	start := p.pos
	r := p.peek()
	if !isNameStart(r) && !unicode.IsDigit(r) {
		return ir.Term{}, p.errorf("invalid blank node label")
	}
	for !p.eof() && (isNameChar(p.peek()) || p.peek() == '.') {
		p.next()
	}
	p.unreadTrailingDots(start)
	label := p.src[start:p.pos]
	p.explicit[label] = struct{}{}
	return ir.NewBlank(label), nil
}

// unreadTrailingDots gives back dots that end a name; they terminate the
// statement instead.
func (p *parser) unreadTrailingDots(start int) {
	for p.pos > start && p.src[p.pos-1] == '.' {
		p.pos--
		p.col--
	}
}

// fresh returns a placeholder for an anonymous blank node. Placeholders
// are renamed once the whole document is known.
func (p *parser) fresh() ir.Term {
	t := ir.Term{Kind: ir.KindBlank, Value: anonMarker + strconv.Itoa(p.anon)}
	p.anon++
	return t
}

const anonMarker = "\x00"

// literal reads a quoted string with an optional language tag or datatype.
func (p *parser) literal() (ir.Term, error) {
	lex, err := p.quoted()
	if err != nil {
		return ir.Term{}, err
	}
	switch {
	case p.peek() == '@':
		p.next()
		start := p.pos
		for !p.eof() {
			r := p.peek()
			if r >= utf8.RuneSelf || !(isASCIILetter(byte(r)) || (p.pos > start && (r == '-' || isDigit(byte(r))))) {
				break
			}
			p.next()
		}
		if p.pos == start {
			return ir.Term{}, p.errorf("empty language tag")
		}
		return ir.NewLangLiteral(lex, p.src[start:p.pos]), nil
	case strings.HasPrefix(p.src[p.pos:], "^^"):
		p.consume(2)
		dt, err := p.iri()
		if err != nil {
			return ir.Term{}, err
		}
		return ir.NewLiteral(lex, dt.Value), nil
	default:
		return ir.NewLiteral(lex, ""), nil
	}
}

// iri reads an IRI reference or, in abbreviated formats, a prefixed name.
func (p *parser) iri() (ir.Term, error) {
	if p.peek() == '<' {
		s, err := p.iriRef()
		if err != nil {
			return ir.Term{}, err
		}
		return ir.NewIRI(s), nil
	}
	if !p.format.Abbreviated() {
		return ir.Term{}, p.errorf("expected IRI, found %s", p.describe())
	}
	return p.prefixedName()
}

// quoted reads a short or long string in single or double quotes.
func (p *parser) quoted() (string, error) {
	q := p.peek()
	if q != '"' && (q != '\'' || !p.format.Abbreviated()) {
		return "", p.errorf("expected string, found %s", p.describe())
	}
	long := p.format.Abbreviated() && strings.HasPrefix(p.src[p.pos:], strings.Repeat(string(q), 3))
	if long {
		p.consume(3)
	} else {
		p.next()
	}

	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}
		if long && strings.HasPrefix(p.src[p.pos:], strings.Repeat(string(q), 3)) {
			p.consume(3)
			return b.String(), nil
		}
		r := p.next()
		switch {
		case r == q && !long:
			return b.String(), nil
		case r == '\\':
			e, err := p.echar()
			if err != nil {
				return "", err
			}
			b.WriteRune(e)
		case (r == '\n' || r == '\r') && !long:
			return "", p.errorf("newline in string")
		default:
			b.WriteRune(r)
		}
	}
}

func (p *parser) echar() (rune, error) {
	switch r := p.peek(); r {
	case 't':
		p.next()
		return '\t', nil
	case 'b':
		p.next()
		return '\b', nil
	case 'n':
		p.next()
		return '\n', nil
	case 'r':
		p.next()
		return '\r', nil
	case 'f':
		p.next()
		return '\f', nil
	case '"', '\'', '\\':
		p.next()
		return r, nil
	case 'u', 'U':
		return p.uchar()
	default:
		return 0, p.errorf("invalid escape \\%c", r)
	}
}

// prefixedName reads prefix:local and expands it.
func (p *parser) prefixedName() (ir.Term, error) {
	start := p.pos
	for !p.eof() && p.peek() != ':' {
		r := p.peek()
		if !isNameChar(r) && r != '.' {
			break
		}
		p.next()
	}
	if p.peek() != ':' {
		return ir.Term{}, p.errorf("unexpected %s", p.describe())
	}
	prefix := p.src[start:p.pos]
	p.next()

	ns, ok := p.prefixes.Lookup(prefix)
	if !ok {
		return ir.Term{}, p.errorf("undefined prefix %q", prefix)
	}

	local, err := p.localName()
	if err != nil {
		return ir.Term{}, err
	}
	return ir.NewIRI(ns + local), nil
}

func (p *parser) localName() (string, error) {
	var b strings.Builder
	start := p.pos
	for !p.eof() {
		r := p.peek()
		switch {
		case isNameChar(r) || r == ':' || r == '.':
			b.WriteRune(p.next())
		case r == '%':
			if p.pos+2 >= len(p.src) || !isHex(p.src[p.pos+1]) || !isHex(p.src[p.pos+2]) {
				return "", p.errorf("invalid percent escape in local name")
			}
			b.WriteString(p.src[p.pos : p.pos+3])
			p.consume(3)
		case r == '\\':
			p.next()
			e := p.next()
			if !strings.ContainsRune("_~.-!$&'()*+,;=/?#@%", e) {
				return "", p.errorf("invalid escape \\%c in local name", e)
			}
			b.WriteRune(e)
		default:
			return trimDots(p, start, b.String()), nil
		}
	}
	return trimDots(p, start, b.String()), nil
}

// trimDots drops trailing dots from a local name and rewinds over them.
func trimDots(p *parser, start int, s string) string {
	n := len(s) - len(strings.TrimRight(s, "."))
	if n > 0 && p.pos-n >= start {
		p.pos -= n
		p.col -= n
	}
	return s[:len(s)-n]
}

// number reads an integer, decimal or double.
func (p *parser) number() (ir.Term, error) {
	start := p.pos
	if r := p.peek(); r == '+' || r == '-' {
		p.next()
	}
	digits := func() int {
		n := 0
		for !p.eof() && isDigitRune(p.peek()) {
			p.next()
			n++
		}
		return n
	}

	intDigits := digits()
	datatype := ir.XSDInteger
	if p.peek() == '.' && isDigit(p.peekAt(1)) {
		p.next()
		digits()
		datatype = ir.XSDDecimal
	} else if intDigits == 0 {
		return ir.Term{}, p.errorf("invalid number")
	}
	if r := p.peek(); r == 'e' || r == 'E' {
		p.next()
		if r := p.peek(); r == '+' || r == '-' {
			p.next()
		}
		if digits() == 0 {
			return ir.Term{}, p.errorf("invalid exponent")
		}
		datatype = ir.XSDDouble
	}
	return ir.NewLiteral(p.src[start:p.pos], datatype), nil
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r) || r == '-' || r == 0xB7 ||
		(r >= 0x0300 && r <= 0x036F) || r == 0x203F || r == 0x2040
}

func isDigitRune(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
