// Package bundle models a tree of build bundles and resolves the configuration
// environment of each of them.
//
// A tree is rooted at a library bundle. Apps and frameworks are discovered
// below it on disk (apps/, clients/ and frameworks/ directories) and become
// child bundles, recursively. Every bundle loads its own configuration file,
// merges it over its parent's merged configuration and, on request, resolves
// a flat environment for the active mode.
//
// All derived state is computed on first access and kept for the lifetime of
// the Bundle: a bundle's view of the filesystem is fixed at first access.
// Bundles are safe for concurrent use.
package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gobwas/glob"

	"github.com/abbot-build/abbot/internal/config"
	"github.com/abbot-build/abbot/internal/document"
	"github.com/abbot-build/abbot/internal/loader"
	"github.com/abbot-build/abbot/internal/logging"
)

// Type is the kind of a bundle.
type Type string

const (
	Library   Type = "library"
	Framework Type = "framework"
	App       Type = "app"
)

// ErrInvalidBundle matches every *InvalidBundleError.
var ErrInvalidBundle = errors.New("invalid bundle")

// InvalidBundleError reports a bundle constructed in violation of its
// contract.
type InvalidBundleError struct {
	SourceRoot string
	Reason     string
}

func (e *InvalidBundleError) Error() string {
	if e.SourceRoot == "" {
		return "invalid bundle: " + e.Reason
	}
	return fmt.Sprintf("invalid bundle %s: %s", e.SourceRoot, e.Reason)
}

func (*InvalidBundleError) Is(target error) bool { return target == ErrInvalidBundle }

// Loader loads the configuration declared in a bundle root.
type Loader interface {
	Load(root string) (*document.Document, error)
}

type options struct {
	loader    Loader
	overrides config.Overrides
	exclude   []glob.Glob
	log       *logging.Logger
}

type Option func(*options)

// WithLoader sets the loader used for every bundle of the tree.
func WithLoader(l Loader) Option {
	return func(o *options) { o.loader = l }
}

// WithOverrides sets the process-wide override state. It is read once per
// bundle, when its environment is first resolved.
func WithOverrides(overrides config.Overrides) Option {
	return func(o *options) { o.overrides = overrides }
}

// WithExclude skips child bundle directories whose base name matches any of
// the given globs.
func WithExclude(globs ...glob.Glob) Option {
	return func(o *options) { o.exclude = globs }
}

func WithLogger(log *logging.Logger) Option {
	return func(o *options) { o.log = log }
}

type lazy[T any] struct {
	mu    sync.Mutex
	done  bool
	value T
	err   error
}

// get returns the memoized value, computing it under the lock on first use.
func (l *lazy[T]) get(compute func() (T, error)) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.done {
		l.value, l.err = compute()
		l.done = true
	}
	return l.value, l.err
}

// Bundle is a node of the bundle tree. The parent link is a plain back
// reference used for name computation and configuration merging; whoever
// holds the root holds the tree.
type Bundle struct {
	sourceRoot string
	typ        Type
	parent     *Bundle
	opts       options

	name         lazy[string]
	apps         lazy[[]*Bundle]
	frameworks   lazy[[]*Bundle]
	localConfig  lazy[*document.Document]
	mergedConfig lazy[*document.Document]
	environment  lazy[document.Values]
}

// New constructs a bundle. Libraries must not have a parent; frameworks and
// apps must. Child bundles inherit the options of their parent; options passed
// for a child override the inherited ones.
func New(sourceRoot string, typ Type, parent *Bundle, opts ...Option) (*Bundle, error) {
	if sourceRoot == "" {
		return nil, &InvalidBundleError{Reason: "source root is required"}
	}

	abs, err := filepath.Abs(sourceRoot)
	if err != nil {
		return nil, &InvalidBundleError{SourceRoot: sourceRoot, Reason: err.Error()}
	}
	fi, err := os.Stat(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, &InvalidBundleError{SourceRoot: abs, Reason: "source root does not exist"}
	case err != nil:
		return nil, &InvalidBundleError{SourceRoot: abs, Reason: err.Error()}
	case !fi.IsDir():
		return nil, &InvalidBundleError{SourceRoot: abs, Reason: "source root is not a directory"}
	}

	switch typ {
	case Library:
		if parent != nil {
			return nil, &InvalidBundleError{SourceRoot: abs, Reason: "library bundle may not have a parent bundle"}
		}
	case Framework, App:
		if parent == nil {
			return nil, &InvalidBundleError{SourceRoot: abs, Reason: fmt.Sprintf("%s bundle must have a parent bundle", typ)}
		}
	default:
		return nil, &InvalidBundleError{SourceRoot: abs, Reason: fmt.Sprintf("unknown bundle type %q", typ)}
	}

	b := &Bundle{
		sourceRoot: abs,
		typ:        typ,
		parent:     parent,
	}
	if parent != nil {
		b.opts = parent.opts
	}
	for _, opt := range opts {
		opt(&b.opts)
	}
	if b.opts.loader == nil {
		b.opts.loader = loader.New()
	}
	if b.opts.log == nil {
		b.opts.log = logging.NewNop()
	}

	return b, nil
}

// SourceRoot returns the absolute path of the bundle.
func (b *Bundle) SourceRoot() string { return b.sourceRoot }

func (b *Bundle) Type() Type { return b.typ }

// Parent returns the parent bundle, or nil for a library.
func (b *Bundle) Parent() *Bundle { return b.parent }

func (b *Bundle) IsLibrary() bool { return b.typ == Library }

// BundleName returns the name code refers to the bundle by: its directory
// name, prefixed with the parent's name unless the parent is a library.
func (b *Bundle) BundleName() string {
	name, _ := b.name.get(func() (string, error) {
		name := filepath.Base(b.sourceRoot)
		if b.parent != nil && !b.parent.IsLibrary() {
			name = b.parent.BundleName() + "/" + name
		}
		return name, nil
	})
	return name
}

func (b *Bundle) String() string {
	return fmt.Sprintf("%s %s (%s)", b.typ, b.BundleName(), b.sourceRoot)
}

// LocalConfig returns the configuration declared in the bundle's own root.
func (b *Bundle) LocalConfig() (*document.Document, error) {
	return b.localConfig.get(func() (*document.Document, error) {
		return b.opts.loader.Load(b.sourceRoot)
	})
}

// MergedConfig returns the bundle's configuration merged over the merged
// configuration of its parent chain. The document is shared and must not be
// modified; MergedConfigFor returns private copies of its sections.
func (b *Bundle) MergedConfig() (*document.Document, error) {
	return b.mergedConfig.get(func() (*document.Document, error) {
		local, err := b.LocalConfig()
		if err != nil {
			return nil, err
		}
		if b.parent == nil {
			return local, nil
		}
		inherited, err := b.parent.MergedConfig()
		if err != nil {
			return nil, err
		}
		return document.Merge(inherited, local), nil
	})
}

// MergedConfigFor returns the merged values of section under mode, or an
// empty map when either is not declared. An empty mode means "all".
func (b *Bundle) MergedConfigFor(section, mode string) (document.Values, error) {
	merged, err := b.MergedConfig()
	if err != nil {
		return nil, err
	}
	return merged.For(section, mode), nil
}
