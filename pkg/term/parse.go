package term

import (
	"strings"

	"github.com/pkg/errors"
)

// ParseError reports a malformed KIF source at a specific line/column. The
// wrapped Cause carries the underlying reason; Line and Col are 1-based.
type ParseError struct {
	Line, Col int
	cause     error
}

func (e *ParseError) Error() string {
	return errors.Wrapf(e.cause, "parse error at %d:%d", e.Line, e.Col).Error()
}

// Cause lets github.com/pkg/errors.Cause unwrap to the underlying reason.
func (e *ParseError) Cause() error { return e.cause }

// Unwrap supports errors.Is/As from the standard library as well.
func (e *ParseError) Unwrap() error { return e.cause }

func newParseError(line, col int, msg string) *ParseError {
	return &ParseError{Line: line, Col: col, cause: errors.New(msg)}
}

// Diagnostic is a non-fatal warning produced while parsing, e.g. an
// unrecognized string escape. Parsing continues after a diagnostic; only
// the errors listed in ParseError are fatal.
type Diagnostic struct {
	Line, Col int
	Message   string
}

// Parse reads src and returns the ordered sequence of top-level terms. It
// stops and returns an error on the first fatal syntax problem: an
// unmatched "(", an unmatched quote, or a variable with an empty name
// ("?" alone or followed by whitespace/paren/EOF). Empty input yields an
// empty, non-nil slice of terms and no error.
func Parse(src string) ([]Term, []Diagnostic, error) {
	p := &parser{runes: []rune(src), line: 1, col: 1}
	var out []Term
	for {
		p.skipSpaceAndComments()
		if p.atEOF() {
			break
		}
		if p.peek() == ')' {
			return out, p.diags, newParseError(p.line, p.col, "unexpected ')'")
		}
		t, err := p.parseTerm()
		if err != nil {
			return out, p.diags, err
		}
		out = append(out, t)
	}
	if out == nil {
		out = []Term{}
	}
	return out, p.diags, nil
}

type parser struct {
	runes []rune
	pos   int
	line  int
	col   int
	diags []Diagnostic
}

func (p *parser) atEOF() bool { return p.pos >= len(p.runes) }

func (p *parser) peek() rune {
	if p.atEOF() {
		return 0
	}
	return p.runes[p.pos]
}

func (p *parser) peekAt(offset int) rune {
	if p.pos+offset >= len(p.runes) {
		return 0
	}
	return p.runes[p.pos+offset]
}

func (p *parser) advance() rune {
	r := p.runes[p.pos]
	p.pos++
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return r
}

func (p *parser) skipSpaceAndComments() {
	for !p.atEOF() {
		r := p.peek()
		switch {
		case r == ';':
			for !p.atEOF() && p.peek() != '\n' {
				p.advance()
			}
		case isSpace(r):
			p.advance()
		default:
			return
		}
	}
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func isDelimiter(r rune) bool {
	switch r {
	case 0, '(', ')', ';', '"', '?':
		return true
	}
	return isSpace(r)
}

// parseTerm parses one term at the current position, which must not be
// whitespace, a comment, or EOF.
func (p *parser) parseTerm() (Term, error) {
	switch p.peek() {
	case '(':
		return p.parseList()
	case '"':
		return p.parseQuotedString()
	case '?':
		return p.parseVariable()
	default:
		return p.parseAtom()
	}
}

func (p *parser) parseList() (Term, error) {
	startLine, startCol := p.line, p.col
	p.advance() // consume '('
	var items []Term
	for {
		p.skipSpaceAndComments()
		if p.atEOF() {
			return nil, newParseError(startLine, startCol, "unmatched '('")
		}
		if p.peek() == ')' {
			p.advance()
			return NewList(items...), nil
		}
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
}

func (p *parser) parseQuotedString() (Term, error) {
	startLine, startCol := p.line, p.col
	p.advance() // consume opening quote
	var b strings.Builder
	for {
		if p.atEOF() {
			return nil, newParseError(startLine, startCol, "unmatched '\"'")
		}
		r := p.advance()
		if r == '"' {
			return NewAtom(b.String()), nil
		}
		if r == '\\' {
			if p.atEOF() {
				return nil, newParseError(startLine, startCol, "unmatched '\"'")
			}
			esc := p.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			default:
				p.diags = append(p.diags, Diagnostic{
					Line: p.line, Col: p.col,
					Message: "unknown escape sequence '\\" + string(esc) + "', using literal character",
				})
				b.WriteRune(esc)
			}
			continue
		}
		b.WriteRune(r)
	}
}

func (p *parser) parseVariable() (Term, error) {
	line, col := p.line, p.col
	p.advance() // consume '?'
	var b strings.Builder
	for !p.atEOF() && !isDelimiter(p.peek()) {
		b.WriteRune(p.advance())
	}
	name := b.String()
	if name == "" {
		return nil, newParseError(line, col, "empty variable name")
	}
	return NewVariable("?" + name), nil
}

func (p *parser) parseAtom() (Term, error) {
	var b strings.Builder
	for !p.atEOF() && !isDelimiter(p.peek()) {
		b.WriteRune(p.advance())
	}
	return NewAtom(b.String()), nil
}
