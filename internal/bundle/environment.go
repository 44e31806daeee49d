package bundle

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/abbot-build/abbot/internal/document"
	"github.com/abbot-build/abbot/internal/metrics"
)

var (
	// ErrBundleNotFound is returned by Find when no bundle has the given name.
	ErrBundleNotFound = errors.New("bundle not found")

	// ErrAmbiguousBundle is returned when several bundles of a tree share a
	// name, for instance apps/foo and frameworks/foo.
	ErrAmbiguousBundle = errors.New("ambiguous bundle name")
)

// Environment returns the fully resolved configuration of the bundle for the
// active mode. Layers are applied in this order, each replacing the keys of
// the previous ones:
//
//  1. section "all" of mode "all"
//  2. section "all" of the active mode
//  3. the bundle's own section of mode "all"
//  4. the bundle's own section of the active mode
//  5. the override state, verbatim
//
// The active mode is read from the override state when the environment is
// first resolved and stays fixed for the bundle afterwards.
func (b *Bundle) Environment() (document.Values, error) {
	env, err := b.environment.get(func() (document.Values, error) {
		env, err := b.resolveEnvironment()
		if err != nil {
			metrics.EnvironmentResolveFailed.Inc()
			return nil, err
		}
		metrics.EnvironmentResolveCount.Inc()
		return env, nil
	})
	if err != nil {
		return nil, err
	}
	return env.Clone(), nil
}

func (b *Bundle) resolveEnvironment() (document.Values, error) {
	mode := b.opts.overrides.Mode()
	name := b.BundleName()

	layers := []struct{ section, mode string }{
		{document.All, document.All},
		{document.All, mode},
		{name, document.All},
		{name, mode},
	}

	env := make(document.Values)
	for _, l := range layers {
		values, err := b.MergedConfigFor(l.section, l.mode)
		if err != nil {
			return nil, err
		}
		document.Overlay(env, values)
	}
	document.Overlay(env, document.Values(b.opts.overrides))

	b.opts.log.Debugf("resolved environment of %s in mode %s (%d keys)", name, mode, len(env))
	return env, nil
}

// Environments resolves the environments of many bundles concurrently, with at
// most workers bundles in flight (no limit when workers <= 0). The result is
// keyed by bundle name; bundles sharing a name are rejected. The first failure
// aborts the whole computation.
func Environments(ctx context.Context, bundles []*Bundle, workers int) (map[string]document.Values, error) {
	seen := make(map[string]*Bundle, len(bundles))
	for _, b := range bundles {
		name := b.BundleName()
		if other, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %s is both %s and %s", ErrAmbiguousBundle, name, other.SourceRoot(), b.SourceRoot())
		}
		seen[name] = b
	}

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	results := make([]document.Values, len(bundles))
	for i, b := range bundles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			env, err := b.Environment()
			if err != nil {
				return fmt.Errorf("bundle %s: %w", b.BundleName(), err)
			}
			results[i] = env
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	envs := make(map[string]document.Values, len(bundles))
	for i, b := range bundles {
		envs[b.BundleName()] = results[i]
	}
	return envs, nil
}

// Find returns the bundle called name: root itself or one of its descendants.
// It fails with ErrAmbiguousBundle when more than one bundle has that name.
func Find(root *Bundle, name string) (*Bundle, error) {
	all, err := root.AllBundles()
	if err != nil {
		return nil, err
	}

	var found *Bundle
	for _, b := range slices.Insert(all, 0, root) {
		if b.BundleName() != name {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s is both %s and %s", ErrAmbiguousBundle, name, found.SourceRoot(), b.SourceRoot())
		}
		found = b
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, name)
	}
	return found, nil
}
