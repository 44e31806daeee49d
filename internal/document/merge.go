package document

import "maps"

// Merge combines base and overlay into a new document. For every (mode,
// section) pair present in either input the entries of overlay replace those
// of base key by key; pairs present on one side only pass through unchanged.
// Nested values are replaced, never merged.
func Merge(base, overlay *Document) *Document {
	result := base.Clone()
	if overlay == nil {
		return result
	}

	for mode, sections := range overlay.Modes {
		for section, values := range sections {
			Overlay(result.Section(mode, section), values)
		}
	}
	for _, p := range overlay.Proxies {
		result.AddProxy(Proxy{Path: p.Path, Options: p.Options.Clone()})
	}

	return result
}

// Overlay copies every key of src into dst, replacing existing entries.
func Overlay(dst, src Values) {
	maps.Copy(dst, src)
}
