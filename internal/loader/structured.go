package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/goccy/go-yaml"
	"github.com/tidwall/jsonc"

	"github.com/abbot-build/abbot/internal/document"
)

// structuredDocument is the on-disk layout of YAML and JSON configuration
// files:
//
//	config:            # mode "all"
//	  all: {key: value}
//	mode:
//	  debug:
//	    myapp: {key: value}
//	proxy:
//	  /api: {to: localhost:3000}
type structuredDocument struct {
	Config map[string]map[string]any            `json:"config,omitempty"`
	Mode   map[string]map[string]map[string]any `json:"mode,omitempty"`
	Proxy  map[string]map[string]any            `json:"proxy,omitempty"`
}

func parseYAML(bs []byte) (*document.Document, error) {
	var raw structuredDocument
	if err := yaml.UnmarshalWithOptions(bs, &raw, yaml.Strict()); err != nil {
		return nil, err
	}
	return raw.document(), nil
}

func parseJSON(bs []byte) (*document.Document, error) {
	var raw structuredDocument
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(bs)))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw.document(), nil
}

func (raw *structuredDocument) document() *document.Document {
	doc := document.New()

	set := func(mode string, sections map[string]map[string]any) {
		for section, values := range sections {
			target := doc.Section(mode, section)
			for k, v := range values {
				target[k] = normalize(v)
			}
		}
	}

	set(document.All, raw.Config)
	for mode, sections := range raw.Mode {
		set(mode, sections)
	}

	for _, path := range slices.Sorted(maps.Keys(raw.Proxy)) {
		opts := make(document.Values, len(raw.Proxy[path]))
		for k, v := range raw.Proxy[path] {
			opts[k] = normalize(v)
		}
		doc.AddProxy(document.Proxy{Path: path, Options: opts})
	}

	return doc
}

// normalize maps decoder-specific representations onto the value shapes the
// script parser produces, so that the same declarations compare equal across
// formats: integers become int, mappings map[string]any, sequences []any.
func normalize(v any) any {
	switch x := v.(type) {
	case uint64:
		if x <= math.MaxInt64 {
			return int(x)
		}
		return x
	case int64:
		return int(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n)
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		result := make(map[string]any, len(x))
		for k, e := range x {
			result[k] = normalize(e)
		}
		return result
	case map[any]any:
		result := make(map[string]any, len(x))
		for k, e := range x {
			result[fmt.Sprint(k)] = normalize(e)
		}
		return result
	case []any:
		result := make([]any, len(x))
		for i, e := range x {
			result[i] = normalize(e)
		}
		return result
	}
	return v
}
