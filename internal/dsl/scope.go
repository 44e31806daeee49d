package dsl

import (
	"maps"

	"github.com/abbot-build/abbot/internal/document"
)

// Record is the mutable record handed to configuration builder callbacks.
type Record = document.Values

// Scope collects configuration declarations into a document. The top-level
// scope belongs to mode "all"; Mode opens a scope for a named mode.
//
//	s := dsl.NewScope()
//	s.ConfigValues("all", dsl.Record{"title": "Hello"})
//	s.Mode("debug", func(m *dsl.Scope) {
//		m.Config("all", func(c dsl.Record) { c["minify"] = false })
//	})
//	doc := s.Document()
type Scope struct {
	doc  *document.Document
	mode string
}

func NewScope() *Scope {
	return &Scope{doc: document.New(), mode: document.All}
}

// ModeName returns the mode this scope declares configuration for.
func (s *Scope) ModeName() string {
	return s.mode
}

// Config declares the section name, populated by build.
func (s *Scope) Config(name string, build func(Record)) {
	r := make(Record)
	if build != nil {
		build(r)
	}
	s.ConfigValues(name, r)
}

// ConfigValues declares the section name with the given values. Repeated
// declarations of the same section accumulate, later keys winning.
func (s *Scope) ConfigValues(name string, values Record) {
	document.Overlay(s.doc.Section(s.mode, name), values)
}

// Mode runs fn with a scope that declares configuration for the named mode.
func (s *Scope) Mode(name string, fn func(*Scope)) {
	fn(&Scope{doc: s.doc, mode: name})
}

// Proxy records an auxiliary proxy declaration. Proxies are not scoped by mode.
func (s *Scope) Proxy(path string, options Record) {
	opts := make(Record, len(options))
	maps.Copy(opts, options)
	s.doc.AddProxy(document.Proxy{Path: path, Options: opts})
}

// Document returns the document built so far.
func (s *Scope) Document() *document.Document {
	return s.doc
}
