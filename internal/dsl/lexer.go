package dsl

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLabel  // name: (hash key shorthand)
	tokSymbol // :name
	tokString
	tokInt
	tokFloat
	tokArrow // =>
	tokAssign
	tokComma
	tokPipe
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
)

var tokenNames = map[tokenKind]string{
	tokEOF:      "end of file",
	tokIdent:    "identifier",
	tokLabel:    "label",
	tokSymbol:   "symbol",
	tokString:   "string",
	tokInt:      "integer",
	tokFloat:    "float",
	tokArrow:    "'=>'",
	tokAssign:   "'='",
	tokComma:    "','",
	tokPipe:     "'|'",
	tokLParen:   "'('",
	tokRParen:   "')'",
	tokLBracket: "'['",
	tokRBracket: "']'",
	tokLBrace:   "'{'",
	tokRBrace:   "'}'",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

type position struct {
	Line, Column int
}

type token struct {
	kind tokenKind
	text string
	pos  position
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return t.kind.String()
	case tokString:
		return fmt.Sprintf("string %q", t.text)
	case tokSymbol:
		return ":" + t.text
	}
	return fmt.Sprintf("%s %q", t.kind, t.text)
}

type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) peekRune() rune {
	if l.off >= len(l.src) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

func (l *lexer) peekRuneAt(n int) rune {
	off := l.off
	for range n {
		if off >= len(l.src) {
			return utf8.RuneError
		}
		_, size := utf8.DecodeRuneInString(l.src[off:])
		off += size
	}
	if off >= len(l.src) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(l.src[off:])
	return r
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpaceAndComments() {
	for l.off < len(l.src) {
		r := l.peekRune()
		switch {
		case r == '#':
			for l.off < len(l.src) && l.peekRune() != '\n' {
				l.advance()
			}
		case r == ';' || unicode.IsSpace(r):
			l.advance()
		default:
			return
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '?' || r == '!' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *lexer) next() (token, error) {
	l.skipSpaceAndComments()

	pos := position{Line: l.line, Column: l.col}
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: pos}, nil
	}

	r := l.peekRune()
	switch {
	case isIdentStart(r):
		ident := l.ident()
		if l.peekRune() == ':' && l.peekRuneAt(1) != ':' {
			l.advance()
			return token{kind: tokLabel, text: ident, pos: pos}, nil
		}
		return token{kind: tokIdent, text: ident, pos: pos}, nil

	case r == ':':
		l.advance()
		switch next := l.peekRune(); {
		case next == '"' || next == '\'':
			s, err := l.quoted()
			if err != nil {
				return token{}, err
			}
			return token{kind: tokSymbol, text: s, pos: pos}, nil
		case isIdentStart(next):
			return token{kind: tokSymbol, text: l.ident(), pos: pos}, nil
		}
		return token{}, &ParseError{Pos: pos, Msg: "expected symbol name after ':'"}

	case r == '"' || r == '\'':
		s, err := l.quoted()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: s, pos: pos}, nil

	case unicode.IsDigit(r) || (r == '-' && unicode.IsDigit(l.peekRuneAt(1))):
		return l.number(pos), nil

	case r == '=':
		l.advance()
		if l.peekRune() == '>' {
			l.advance()
			return token{kind: tokArrow, text: "=>", pos: pos}, nil
		}
		return token{kind: tokAssign, text: "=", pos: pos}, nil
	}

	punct := map[rune]tokenKind{
		',': tokComma,
		'|': tokPipe,
		'(': tokLParen,
		')': tokRParen,
		'[': tokLBracket,
		']': tokRBracket,
		'{': tokLBrace,
		'}': tokRBrace,
	}
	if kind, ok := punct[r]; ok {
		l.advance()
		return token{kind: kind, text: string(r), pos: pos}, nil
	}

	return token{}, &ParseError{Pos: pos, Msg: fmt.Sprintf("unexpected character %q", r)}
}

func (l *lexer) ident() string {
	start := l.off
	for l.off < len(l.src) && isIdentPart(l.peekRune()) {
		l.advance()
	}
	return l.src[start:l.off]
}

func (l *lexer) number(pos position) token {
	start := l.off
	if l.peekRune() == '-' {
		l.advance()
	}
	kind := tokInt
	for l.off < len(l.src) {
		r := l.peekRune()
		switch {
		case unicode.IsDigit(r) || r == '_':
			l.advance()
		case r == '.' && kind == tokInt && unicode.IsDigit(l.peekRuneAt(1)):
			kind = tokFloat
			l.advance()
		default:
			return token{kind: kind, text: strings.ReplaceAll(l.src[start:l.off], "_", ""), pos: pos}
		}
	}
	return token{kind: kind, text: strings.ReplaceAll(l.src[start:l.off], "_", ""), pos: pos}
}

// quoted reads a single- or double-quoted string. Double-quoted strings
// understand the usual backslash escapes; single-quoted strings only \' and \\.
func (l *lexer) quoted() (string, error) {
	pos := position{Line: l.line, Column: l.col}
	quote := l.advance()

	var sb strings.Builder
	for {
		if l.off >= len(l.src) {
			return "", &ParseError{Pos: pos, Msg: "unterminated string"}
		}
		r := l.advance()
		switch {
		case r == quote:
			return sb.String(), nil
		case r == '\\' && l.off < len(l.src):
			esc := l.advance()
			if quote == '\'' {
				if esc != '\'' && esc != '\\' {
					sb.WriteRune('\\')
				}
				sb.WriteRune(esc)
				continue
			}
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '0':
				sb.WriteRune(0)
			default:
				sb.WriteRune(esc)
			}
		default:
			sb.WriteRune(r)
		}
	}
}
