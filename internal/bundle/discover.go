package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/abbot-build/abbot/internal/loader"
	"github.com/abbot-build/abbot/internal/metrics"
)

var (
	appDirs       = []string{"clients", "apps"}
	frameworkDirs = []string{"frameworks"}
)

// DiscoverApps returns the app directories installed in root: the immediate
// subdirectories of root/clients and root/apps.
func DiscoverApps(root string, exclude ...glob.Glob) ([]string, error) {
	return discover(root, appDirs, exclude)
}

// DiscoverFrameworks returns the immediate subdirectories of root/frameworks.
func DiscoverFrameworks(root string, exclude ...glob.Glob) ([]string, error) {
	return discover(root, frameworkDirs, exclude)
}

// discover lists child directories. Missing containers yield nothing, regular
// files are skipped and so are symlinks, which are never followed. Hidden
// entries are skipped like the entries matching an exclusion glob. The result
// is sorted and free of duplicates.
func discover(root string, containers []string, exclude []glob.Glob) ([]string, error) {
	var paths []string

	for _, c := range containers {
		dir := filepath.Join(root, c)
		fi, err := os.Stat(dir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			return nil, &loader.EnvironmentalError{Path: dir, Err: err}
		case !fi.IsDir():
			continue
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, &loader.EnvironmentalError{Path: dir, Err: err}
		}

		for _, e := range entries {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if slices.ContainsFunc(exclude, func(g glob.Glob) bool { return g.Match(e.Name()) }) {
				continue
			}
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	slices.Sort(paths)
	return slices.Compact(paths), nil
}

// AppBundles returns the app bundles installed in this bundle.
func (b *Bundle) AppBundles() ([]*Bundle, error) {
	return b.apps.get(func() ([]*Bundle, error) {
		return b.children(App, DiscoverApps)
	})
}

// FrameworkBundles returns the framework bundles installed in this bundle.
func (b *Bundle) FrameworkBundles() ([]*Bundle, error) {
	return b.frameworks.get(func() ([]*Bundle, error) {
		return b.children(Framework, DiscoverFrameworks)
	})
}

func (b *Bundle) children(typ Type, discover func(string, ...glob.Glob) ([]string, error)) ([]*Bundle, error) {
	paths, err := discover(b.sourceRoot, b.opts.exclude...)
	if err != nil {
		return nil, err
	}

	result := make([]*Bundle, 0, len(paths))
	for _, p := range paths {
		child, err := New(p, typ, b)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", b.BundleName(), err)
		}
		result = append(result, child)
	}

	if len(result) > 0 {
		metrics.BundlesDiscovered.WithLabelValues(string(typ)).Add(float64(len(result)))
		b.opts.log.Debugf("discovered %d %s bundles in %s", len(result), typ, b.sourceRoot)
	}
	return result, nil
}

// ChildBundles returns the app and framework bundles installed directly in
// this bundle, sorted by source root.
func (b *Bundle) ChildBundles() ([]*Bundle, error) {
	apps, err := b.AppBundles()
	if err != nil {
		return nil, err
	}
	frameworks, err := b.FrameworkBundles()
	if err != nil {
		return nil, err
	}
	return sortBundles(slices.Concat(apps, frameworks)), nil
}

// AllBundles returns every bundle below this one, at any depth, sorted by
// source root. The receiver is not included.
func (b *Bundle) AllBundles() ([]*Bundle, error) {
	children, err := b.ChildBundles()
	if err != nil {
		return nil, err
	}

	result := slices.Clone(children)
	for _, child := range children {
		descendants, err := child.AllBundles()
		if err != nil {
			return nil, err
		}
		result = append(result, descendants...)
	}
	return sortBundles(result), nil
}

func sortBundles(bundles []*Bundle) []*Bundle {
	slices.SortFunc(bundles, func(a, b *Bundle) int {
		return strings.Compare(a.sourceRoot, b.sourceRoot)
	})
	return bundles
}
