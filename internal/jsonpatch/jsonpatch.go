// Package jsonpatch applies RFC 6902 patches to resolved environments before
// they are printed.
package jsonpatch

import (
	"encoding/json"
	"fmt"
	"os"

	jp "github.com/evanphx/json-patch/v5"
)

// UnsupportedOperationError is returned for operations other than add,
// remove and replace.
type UnsupportedOperationError struct {
	Op string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported patch operation %q, must be one of \"replace\", \"add\", \"remove\"", e.Op)
}

type Patch = jp.Patch

var opts = jp.ApplyOptions{
	EnsurePathExistsOnAdd:    true,
	AllowMissingPathOnRemove: true,
}

// Decode parses a JSON patch document and rejects unsupported operations.
func Decode(bs []byte) (Patch, error) {
	p, err := jp.DecodePatch(bs)
	if err != nil {
		return nil, err
	}
	for _, op := range p {
		switch op.Kind() {
		case "replace", "remove", "add":
		default:
			return nil, &UnsupportedOperationError{Op: op.Kind()}
		}
	}
	return p, nil
}

func ReadFile(path string) (Patch, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Decode(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Apply patches the JSON representation of values and returns the result
// decoded into a fresh map.
func Apply(p Patch, values map[string]any) (map[string]any, error) {
	doc, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}

	patched, err := p.ApplyWithOptions(doc, &opts)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(patched, &result); err != nil {
		return nil, err
	}
	return result, nil
}
