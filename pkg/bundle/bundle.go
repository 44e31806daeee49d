package bundle

import (
	"context"

	"github.com/gobwas/glob"

	"github.com/abbot-build/abbot/internal/bundle"
	"github.com/abbot-build/abbot/internal/config"
	"github.com/abbot-build/abbot/internal/document"
	"github.com/abbot-build/abbot/internal/loader"
	"github.com/abbot-build/abbot/internal/logging"
)

type (
	Bundle    = bundle.Bundle
	Type      = bundle.Type
	Option    = bundle.Option
	Loader    = bundle.Loader
	Overrides = config.Overrides
	Values    = document.Values
	Document  = document.Document
	Logger    = logging.Logger

	InvalidBundleError = bundle.InvalidBundleError
	ConfigSyntaxError  = loader.ConfigSyntaxError
	EnvironmentalError = loader.EnvironmentalError
)

const (
	Library   = bundle.Library
	Framework = bundle.Framework
	App       = bundle.App
)

var (
	ErrInvalidBundle   = bundle.ErrInvalidBundle
	ErrBundleNotFound  = bundle.ErrBundleNotFound
	ErrAmbiguousBundle = bundle.ErrAmbiguousBundle
	ErrConfigSyntax    = loader.ErrConfigSyntax
	ErrEnvironmental   = loader.ErrEnvironmental
)

var (
	WithLoader    = bundle.WithLoader
	WithOverrides = bundle.WithOverrides
	WithLogger    = bundle.WithLogger
)

// Open returns the library bundle rooted at path.
func Open(path string, opts ...Option) (*Bundle, error) {
	return bundle.New(path, bundle.Library, nil, opts...)
}

// Find returns the bundle called name in the tree of root.
func Find(root *Bundle, name string) (*Bundle, error) {
	return bundle.Find(root, name)
}

// Environments resolves the environments of bundles concurrently.
func Environments(ctx context.Context, bundles []*Bundle, workers int) (map[string]Values, error) {
	return bundle.Environments(ctx, bundles, workers)
}

// IsBundle reports whether path holds a recognized configuration file.
func IsBundle(path string) bool {
	return loader.IsBundle(path)
}

// Cache shares parsed configuration files between bundle trees.
type Cache = loader.Cache

// NewCache returns a cache holding up to size parsed files. Files that miss
// the cache are loaded and logged through log, which may be nil.
func NewCache(size int, log *Logger) (*Cache, error) {
	l := loader.New()
	if log != nil {
		l = l.WithLogger(log)
	}
	return loader.NewCache(l, size)
}

// WithCache loads configuration files through c.
func WithCache(c *Cache) Option {
	return bundle.WithLoader(c)
}

// WithExclude skips child bundle directories whose name matches any of the
// glob patterns.
func WithExclude(patterns ...string) (Option, error) {
	globs, err := config.CompileExclude(patterns)
	if err != nil {
		return nil, err
	}
	return bundle.WithExclude(globs...), nil
}

// WithExcludeGlobs is WithExclude for patterns compiled already.
func WithExcludeGlobs(globs ...glob.Glob) Option {
	return bundle.WithExclude(globs...)
}
