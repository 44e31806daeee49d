// Package loader reads the configuration declarations of a single bundle into
// a document.
//
// A bundle root may contain one of several recognized configuration files
// (see ConfigFiles). The first one found is loaded; the others are ignored,
// they are alternatives and never merged. A root without any of them loads as
// an empty document.
package loader

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/abbot-build/abbot/internal/document"
	"github.com/abbot-build/abbot/internal/dsl"
	"github.com/abbot-build/abbot/internal/logging"
	"github.com/abbot-build/abbot/internal/metrics"
)

type Loader struct {
	log *logging.Logger
}

func New() *Loader {
	return &Loader{log: logging.NewNop()}
}

func (l *Loader) WithLogger(log *logging.Logger) *Loader {
	l.log = log
	return l
}

// Load loads the configuration declared in root.
func (l *Loader) Load(root string) (*document.Document, error) {
	path, f, _, err := Find(root)
	if err != nil {
		return nil, err
	}
	if path == "" {
		l.log.Debugf("no configuration file in %s", root)
		return document.New(), nil
	}
	return l.LoadFile(path, f.Format)
}

// LoadFile parses the file at path in the given format.
func (l *Loader) LoadFile(path string, format Format) (*document.Document, error) {
	start := time.Now()
	doc, err := l.loadFile(path, format)
	metrics.ConfigLoadDuration.WithLabelValues(format.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ConfigLoadFailed.WithLabelValues(format.String(), errorType(err)).Inc()
		return nil, err
	}
	metrics.ConfigLoadCount.WithLabelValues(format.String()).Inc()
	l.log.Debugf("loaded %s configuration from %s", format, path)
	return doc, nil
}

func (*Loader) loadFile(path string, format Format) (*document.Document, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, &EnvironmentalError{Path: path, Err: err}
	}

	var doc *document.Document
	switch format {
	case FormatScript:
		doc, err = dsl.Parse(bs)
	case FormatYAML:
		doc, err = parseYAML(bs)
	case FormatJSON:
		doc, err = parseJSON(bs)
	default:
		return nil, fmt.Errorf("unsupported configuration format %v", format)
	}
	if err != nil {
		syntaxErr := &ConfigSyntaxError{Path: path, Err: err}
		var pe *dsl.ParseError
		if errors.As(err, &pe) {
			syntaxErr.Line, syntaxErr.Column = pe.Line(), pe.Column()
		}
		return nil, syntaxErr
	}
	return doc, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrConfigSyntax):
		return "syntax"
	case errors.Is(err, ErrEnvironmental):
		return "environmental"
	}
	return "other"
}
