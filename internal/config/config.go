package config

import (
	"bytes"
	"cmp"
	"fmt"
	"maps"
	"os"

	"github.com/gobwas/glob"
	"github.com/goccy/go-yaml"
)

// Process configuration of the abbot command line tool.

const (
	// ModeKey is the reserved override key selecting the active mode.
	ModeKey = "mode"

	// DefaultMode is the mode used when none is selected.
	DefaultMode = "debug"

	DefaultCacheSize = 256
)

// Root is the top-level process configuration.
type Root struct {
	Mode      string         `json:"mode,omitempty"`
	Overrides map[string]any `json:"overrides,omitempty"`
	Exclude   []string       `json:"exclude,omitempty"`
	Cache     Cache          `json:"cache,omitzero"`
	Log       Log            `json:"log,omitzero"`

	_ struct{} `additionalProperties:"false"`
}

// Cache configures the configuration file cache shared by bundle trees.
type Cache struct {
	Size int `json:"size,omitempty" minimum:"1"`

	_ struct{} `additionalProperties:"false"`
}

type Log struct {
	Level  string `json:"level,omitempty" enum:"debug,info,warn,error"`
	Format string `json:"format,omitempty" enum:"text,json"`

	_ struct{} `additionalProperties:"false"`
}

// Default returns the configuration used when no file is given.
func Default() *Root {
	var root Root
	root.setDefaults()
	return &root
}

func (r *Root) setDefaults() {
	r.Cache.Size = cmp.Or(r.Cache.Size, DefaultCacheSize)
	r.Log.Level = cmp.Or(r.Log.Level, "info")
	r.Log.Format = cmp.Or(r.Log.Format, "text")
}

func ParseFile(filename string) (*Root, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	return Parse(bs)
}

// Parse validates and decodes a configuration document. Fields left out keep
// their default values.
func Parse(bs []byte) (*Root, error) {
	if len(bytes.TrimSpace(bs)) == 0 {
		return Default(), nil
	}

	if err := Validate(bs); err != nil {
		return nil, err
	}

	var root Root
	if err := yaml.Unmarshal(bs, &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	root.setDefaults()
	return &root, nil
}

// Load merges the given configuration files in order, parses the result and
// applies the environment on top of it.
func Load(files []string, env *Env) (*Root, error) {
	var bs []byte
	if len(files) > 0 {
		var err error
		bs, err = Merge(files, false)
		if err != nil {
			return nil, err
		}
	}

	root, err := Parse(bs)
	if err != nil {
		return nil, err
	}

	if env != nil {
		root.ApplyEnv(env)
	}
	return root, nil
}

// ExcludeGlobs compiles the exclusion patterns.
func (r *Root) ExcludeGlobs() ([]glob.Glob, error) {
	return CompileExclude(r.Exclude)
}

// CompileExclude compiles bundle directory exclusion patterns.
func CompileExclude(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// OverrideState returns the process-wide override state: the configured
// overrides plus the mode, when one is set.
func (r *Root) OverrideState() Overrides {
	o := make(Overrides, len(r.Overrides)+1)
	maps.Copy(o, r.Overrides)
	if r.Mode != "" {
		o[ModeKey] = r.Mode
	}
	return o
}

// Overrides is the flat override mapping applied last to every environment.
// The ModeKey entry selects the active mode.
type Overrides map[string]any

// Mode returns the active mode. It defaults to "debug"; "development" is an
// alias of "debug".
func (o Overrides) Mode() string {
	v, ok := o[ModeKey]
	if !ok || v == nil {
		return DefaultMode
	}

	mode := fmt.Sprint(v)
	switch mode {
	case "", "development":
		return DefaultMode
	}
	return mode
}
