package loader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Format identifies how a configuration file is parsed.
type Format int

const (
	FormatScript Format = iota
	FormatYAML
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatScript:
		return "script"
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	}
	return "unknown"
}

// ConfigFile is a recognized configuration filename.
type ConfigFile struct {
	Name   string
	Format Format
}

// ConfigFiles lists the recognized configuration filenames in precedence
// order. The first one present in a bundle root is the only one loaded.
var ConfigFiles = []ConfigFile{
	{Name: "sc-config", Format: FormatScript},
	{Name: "sc-config.rb", Format: FormatScript},
	{Name: "sc-config.yaml", Format: FormatYAML},
	{Name: "sc-config.yml", Format: FormatYAML},
	{Name: "sc-config.json", Format: FormatJSON},
}

// IsBundle returns true if path directly contains a recognized configuration
// file.
func IsBundle(path string) bool {
	for _, f := range ConfigFiles {
		if fi, err := os.Stat(filepath.Join(path, f.Name)); err == nil && fi.Mode().IsRegular() {
			return true
		}
	}
	return false
}

// Find returns the configuration file that applies to root, if any. The
// returned FileInfo belongs to the file found.
func Find(root string) (string, ConfigFile, fs.FileInfo, error) {
	for _, f := range ConfigFiles {
		path := filepath.Join(root, f.Name)
		fi, err := os.Stat(path)
		switch {
		case err == nil && fi.Mode().IsRegular():
			return path, f, fi, nil
		case err == nil:
			continue // a directory named like a config file does not count
		case errors.Is(err, fs.ErrNotExist):
			continue
		default:
			return "", ConfigFile{}, nil, &EnvironmentalError{Path: path, Err: err}
		}
	}
	return "", ConfigFile{}, nil, nil
}
