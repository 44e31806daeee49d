package config

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"slices"

	"gopkg.in/yaml.v3"
)

var configExtensions = []string{".yaml", ".yml", ".json"}

// Merge reads the configuration files, or the configuration files found below
// directories, and merges them in order into a single YAML document. Nested
// mappings are merged key by key; any other value is replaced by later files,
// unless conflictError is set, in which case differing values are an error.
func Merge(configFiles []string, conflictError bool) ([]byte, error) {
	paths, err := collect(configFiles)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any)
	for _, path := range paths {
		bs, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %v: %w", path, err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(bs, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal configuration file %v: %w", path, err)
		}
		if err := mergeInto(merged, doc, "", conflictError); err != nil {
			return nil, fmt.Errorf("%v: %w", path, err)
		}
	}

	if len(merged) == 0 {
		return nil, nil
	}

	bs, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal merged configuration: %w", err)
	}
	return bs, nil
}

// collect expands directories into the configuration files they contain.
// Files named explicitly are kept whatever their extension.
func collect(configFiles []string) ([]string, error) {
	var paths []string
	for _, f := range configFiles {
		fi, err := os.Stat(f)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			paths = append(paths, f)
			continue
		}
		if err := filepath.WalkDir(f, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && slices.Contains(configExtensions, filepath.Ext(path)) {
				paths = append(paths, path)
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func mergeInto(dst, src map[string]any, path string, conflictError bool) error {
	// Sorted for deterministic conflict errors.
	for _, key := range slices.Sorted(maps.Keys(src)) {
		value := src[key]
		keyPath := path + "/" + key

		existing, ok := dst[key]
		if !ok {
			dst[key] = value
			continue
		}

		existingMap, ok1 := existing.(map[string]any)
		valueMap, ok2 := value.(map[string]any)
		if ok1 && ok2 {
			if err := mergeInto(existingMap, valueMap, keyPath, conflictError); err != nil {
				return err
			}
			continue
		}

		if conflictError && !reflect.DeepEqual(existing, value) {
			return fmt.Errorf("conflict for config path %s", keyPath)
		}
		dst[key] = value
	}
	return nil
}
