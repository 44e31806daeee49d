package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	envPrefix    = "ABBOT_"
	envSetPrefix = envPrefix + "SET_"
)

// Env holds the configuration read from ABBOT_* environment variables.
// ABBOT_SET_<KEY>=value entries end up in Set under the lower-cased key.
type Env struct {
	Mode      string   `env:"MODE"`
	Config    []string `env:"CONFIG" envSeparator:":"`
	LogLevel  string   `env:"LOG_LEVEL"`
	LogFormat string   `env:"LOG_FORMAT"`
	CacheSize int      `env:"CACHE_SIZE"`

	Set map[string]string
}

// ParseEnv reads the configuration from a list of KEY=value entries, as
// returned by os.Environ.
func ParseEnv(environ []string) (*Env, error) {
	vars := env.ToMap(environ)

	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Prefix: envPrefix, Environment: vars}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	for k, v := range vars {
		key, ok := strings.CutPrefix(k, envSetPrefix)
		if !ok || key == "" {
			continue
		}
		if e.Set == nil {
			e.Set = make(map[string]string)
		}
		e.Set[strings.ToLower(key)] = v
	}

	return &e, nil
}

// ApplyEnv overwrites the fields set in the environment.
func (r *Root) ApplyEnv(e *Env) {
	if e.Mode != "" {
		r.Mode = e.Mode
	}
	if e.LogLevel != "" {
		r.Log.Level = e.LogLevel
	}
	if e.LogFormat != "" {
		r.Log.Format = e.LogFormat
	}
	if e.CacheSize > 0 {
		r.Cache.Size = e.CacheSize
	}
	for k, v := range e.Set {
		if r.Overrides == nil {
			r.Overrides = make(map[string]any, len(e.Set))
		}
		r.Overrides[k] = v
	}
}
