package document

import (
	"maps"
	"slices"
)

// All is the wildcard used both as a mode name and as a section name.
const All = "all"

// Values holds the key/value entries of one section. Values are loosely typed:
// scalars, []any and map[string]any are all valid.
type Values map[string]any

// Proxy is an auxiliary declaration that is carried along with a document but
// plays no part in environment resolution.
type Proxy struct {
	Path    string
	Options Values
}

// Document is the configuration declared by a single bundle (or the result of
// merging several), keyed by mode name and then by section name.
type Document struct {
	Modes   map[string]map[string]Values
	Proxies []Proxy
}

func New() *Document {
	return &Document{Modes: make(map[string]map[string]Values)}
}

// Set assigns key in the given mode and section. Later writes win.
func (d *Document) Set(mode, section, key string, value any) {
	d.Section(mode, section)[key] = value
}

// Section returns the mutable section for mode, creating it if needed.
func (d *Document) Section(mode, section string) Values {
	if d.Modes == nil {
		d.Modes = make(map[string]map[string]Values)
	}
	sections, ok := d.Modes[mode]
	if !ok {
		sections = make(map[string]Values)
		d.Modes[mode] = sections
	}
	values, ok := sections[section]
	if !ok {
		values = make(Values)
		sections[section] = values
	}
	return values
}

// AddProxy records a proxy declaration. A later declaration for the same path
// replaces the earlier one.
func (d *Document) AddProxy(p Proxy) {
	if i := slices.IndexFunc(d.Proxies, func(o Proxy) bool { return o.Path == p.Path }); i != -1 {
		d.Proxies[i] = p
		return
	}
	d.Proxies = append(d.Proxies, p)
}

// For returns a deep copy of the values declared for section under mode.
// Missing modes or sections yield an empty, non-nil map. An empty mode means
// All.
func (d *Document) For(section, mode string) Values {
	if mode == "" {
		mode = All
	}
	if d == nil {
		return make(Values)
	}
	values, ok := d.Modes[mode][section]
	if !ok {
		return make(Values)
	}
	return values.Clone()
}

// Clone returns a deep copy of v. Nested maps and lists are copied, scalars
// are shared.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	result := make(Values, len(v))
	for k, e := range v {
		result[k] = cloneValue(e)
	}
	return result
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case Values:
		return x.Clone()
	case map[string]any:
		return map[string]any(Values(x).Clone())
	case []any:
		if x == nil {
			return x
		}
		result := make([]any, len(x))
		for i, e := range x {
			result[i] = cloneValue(e)
		}
		return result
	}
	return v
}

// IsEmpty reports whether the document declares nothing at all.
func (d *Document) IsEmpty() bool {
	return d == nil || (len(d.Modes) == 0 && len(d.Proxies) == 0)
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	result := New()
	if d == nil {
		return result
	}
	for mode, sections := range d.Modes {
		result.Modes[mode] = make(map[string]Values, len(sections))
		for section, values := range sections {
			result.Section(mode, section)
			maps.Copy(result.Modes[mode][section], values.Clone())
		}
	}
	for _, p := range d.Proxies {
		result.Proxies = append(result.Proxies, Proxy{Path: p.Path, Options: p.Options.Clone()})
	}
	return result
}
