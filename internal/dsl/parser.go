// Package dsl parses configuration declaration scripts into documents.
//
// A script is a sequence of declarations:
//
//	config :all, :title => "Hello", theme: "ace"
//
//	config :myapp do |c|
//	  c[:required] = [:sproutcore]
//	end
//
//	mode :debug do
//	  config :all, :minify => false
//	end
//
//	proxy '/api', :to => 'localhost:3000'
//
// The parser is data-driven: nothing is evaluated beyond literal values.
// Declarations outside a mode block belong to mode "all". Later writes to the
// same mode, section and key win.
package dsl

import (
	"fmt"
	"strconv"

	"github.com/abbot-build/abbot/internal/document"
)

// ParseError describes malformed declaration source.
type ParseError struct {
	Pos position
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Line returns the 1-based line of the error.
func (e *ParseError) Line() int { return e.Pos.Line }

// Column returns the 1-based column of the error.
func (e *ParseError) Column() int { return e.Pos.Column }

// Parse parses a declaration script.
func Parse(src []byte) (*document.Document, error) {
	p := &parser{lex: newLexer(string(src))}
	if err := p.advance(); err != nil {
		return nil, err
	}

	scope := NewScope()
	if err := p.statements(scope, false); err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %v", p.tok)
	}
	return scope.Document(), nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Pos: p.tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.tok
	if tok.kind != kind {
		return tok, p.errorf("expected %v, found %v", kind, tok)
	}
	return tok, p.advance()
}

func (p *parser) isKeyword(word string) bool {
	return p.tok.kind == tokIdent && p.tok.text == word
}

// statements parses declarations until end of input, or until the closing
// keyword of the enclosing mode block when inMode is set.
func (p *parser) statements(scope *Scope, inMode bool) error {
	for {
		switch {
		case p.tok.kind == tokEOF:
			return nil
		case inMode && (p.isKeyword("end") || p.tok.kind == tokRBrace):
			return nil
		case p.isKeyword("config"):
			if err := p.config(scope); err != nil {
				return err
			}
		case p.isKeyword("mode"):
			if inMode {
				return p.errorf("mode blocks cannot be nested")
			}
			if err := p.mode(scope); err != nil {
				return err
			}
		case p.isKeyword("proxy"):
			if err := p.proxy(scope); err != nil {
				return err
			}
		default:
			return p.errorf("unexpected %v, expected config, mode or proxy", p.tok)
		}
	}
}

// config :name[, pairs] [block]
func (p *parser) config(scope *Scope) error {
	if err := p.advance(); err != nil {
		return err
	}
	name, values, err := p.declaration()
	if err != nil {
		return err
	}
	scope.ConfigValues(name, values)

	block, err := p.block()
	if err != nil {
		return err
	}
	scope.ConfigValues(name, block)
	return nil
}

// proxy 'path'[, pairs] [block]
func (p *parser) proxy(scope *Scope) error {
	if err := p.advance(); err != nil {
		return err
	}
	path, values, err := p.declaration()
	if err != nil {
		return err
	}
	block, err := p.block()
	if err != nil {
		return err
	}
	document.Overlay(values, block)
	scope.Proxy(path, values)
	return nil
}

// mode :name do ... end
func (p *parser) mode(scope *Scope) error {
	if err := p.advance(); err != nil {
		return err
	}
	paren := p.tok.kind == tokLParen
	if paren {
		if err := p.advance(); err != nil {
			return err
		}
	}
	name, err := p.name()
	if err != nil {
		return err
	}
	if paren {
		if _, err := p.expect(tokRParen); err != nil {
			return err
		}
	}

	closing, err := p.blockOpen()
	if err != nil {
		return err
	}
	if closing == nil {
		return p.errorf("expected 'do' or '{' after mode %q", name)
	}

	var bodyErr error
	scope.Mode(name, func(m *Scope) {
		bodyErr = p.statements(m, true)
	})
	if bodyErr != nil {
		return bodyErr
	}
	return closing()
}

// declaration parses the arguments shared by config and proxy: a name
// followed by optional key/value pairs, optionally wrapped in parentheses.
func (p *parser) declaration() (string, Record, error) {
	paren := p.tok.kind == tokLParen
	if paren {
		if err := p.advance(); err != nil {
			return "", nil, err
		}
	}

	name, err := p.name()
	if err != nil {
		return "", nil, err
	}

	values := make(Record)
	for p.tok.kind == tokComma {
		if err := p.advance(); err != nil {
			return "", nil, err
		}
		if p.tok.kind == tokLBrace {
			h, err := p.hash()
			if err != nil {
				return "", nil, err
			}
			document.Overlay(values, h)
			continue
		}
		key, value, err := p.pair()
		if err != nil {
			return "", nil, err
		}
		values[key] = value
	}

	if paren {
		if _, err := p.expect(tokRParen); err != nil {
			return "", nil, err
		}
	}
	return name, values, nil
}

func (p *parser) name() (string, error) {
	switch p.tok.kind {
	case tokSymbol, tokString:
		name := p.tok.text
		return name, p.advance()
	}
	return "", p.errorf("expected symbol or string name, found %v", p.tok)
}

// blockOpen consumes 'do' or '{' when present and returns a function that
// consumes the matching closing token. It returns nil when no block follows.
func (p *parser) blockOpen() (func() error, error) {
	switch {
	case p.isKeyword("do"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return func() error {
			if !p.isKeyword("end") {
				return p.errorf("expected 'end', found %v", p.tok)
			}
			return p.advance()
		}, nil
	case p.tok.kind == tokLBrace:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return func() error {
			_, err := p.expect(tokRBrace)
			return err
		}, nil
	}
	return nil, nil
}

// block parses an optional builder block:
//
//	do |c|
//	  c[:key] = value
//	end
func (p *parser) block() (Record, error) {
	record := make(Record)

	closing, err := p.blockOpen()
	if err != nil || closing == nil {
		return record, err
	}

	if _, err := p.expect(tokPipe); err != nil {
		return nil, err
	}
	param, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokPipe); err != nil {
		return nil, err
	}

	for !p.isKeyword("end") && p.tok.kind != tokRBrace && p.tok.kind != tokEOF {
		if p.tok.kind != tokIdent || p.tok.text != param.text {
			return nil, p.errorf("expected assignment to %s[...], found %v", param.text, p.tok)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(tokLBracket); err != nil {
			return nil, err
		}
		key, err := p.key()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRBracket); err != nil {
			return nil, err
		}
		if _, err := p.expect(tokAssign); err != nil {
			return nil, err
		}
		value, err := p.value()
		if err != nil {
			return nil, err
		}
		record[key] = value
	}

	return record, closing()
}

func (p *parser) key() (string, error) {
	switch p.tok.kind {
	case tokSymbol, tokString:
		key := p.tok.text
		return key, p.advance()
	}
	return "", p.errorf("expected symbol or string key, found %v", p.tok)
}

// pair parses `:key => value`, `'key' => value` or `key: value`.
func (p *parser) pair() (string, any, error) {
	if p.tok.kind == tokLabel {
		key := p.tok.text
		if err := p.advance(); err != nil {
			return "", nil, err
		}
		value, err := p.value()
		return key, value, err
	}

	key, err := p.key()
	if err != nil {
		return "", nil, err
	}
	if _, err := p.expect(tokArrow); err != nil {
		return "", nil, err
	}
	value, err := p.value()
	return key, value, err
}

func (p *parser) value() (any, error) {
	tok := p.tok
	switch tok.kind {
	case tokSymbol, tokString:
		return tok.text, p.advance()
	case tokInt:
		n, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer %s", tok.text)
		}
		return int(n), p.advance()
	case tokFloat:
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, p.errorf("invalid float %s", tok.text)
		}
		return f, p.advance()
	case tokIdent:
		switch tok.text {
		case "true":
			return true, p.advance()
		case "false":
			return false, p.advance()
		case "nil":
			return nil, p.advance()
		}
	case tokLBracket:
		return p.array()
	case tokLBrace:
		h, err := p.hash()
		if err != nil {
			return nil, err
		}
		return map[string]any(h), nil
	}
	return nil, p.errorf("expected value, found %v", tok)
}

func (p *parser) array() (any, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	result := []any{}
	for p.tok.kind != tokRBracket {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		result = append(result, v)
		if p.tok.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokRBracket); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *parser) hash() (Record, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	result := make(Record)
	for p.tok.kind != tokRBrace {
		k, v, err := p.pair()
		if err != nil {
			return nil, err
		}
		result[k] = v
		if p.tok.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokRBrace); err != nil {
		return nil, err
	}
	return result, nil
}
