package bundle_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abbot-build/abbot/internal/bundle"
	"github.com/abbot-build/abbot/internal/config"
	"github.com/abbot-build/abbot/internal/document"
	"github.com/abbot-build/abbot/internal/loader"
	"github.com/abbot-build/abbot/internal/test/tempfs"
)

func doc(sections map[[2]string]document.Values) *document.Document {
	d := document.New()
	for k, values := range sections {
		for key, value := range values {
			d.Set(k[0], k[1], key, value)
		}
	}
	return d
}

func TestEnvironment(t *testing.T) {

	cases := []struct {
		note      string
		lib       *document.Document
		app       *document.Document
		overrides config.Overrides
		exp       document.Values
	}{
		{
			note: "global and mode sections",
			lib: doc(map[[2]string]document.Values{
				{"all", "all"}:   {"a": "a", "b": "b"},
				{"debug", "all"}: {"a_debug": "a", "b_debug": "b"},
			}),
			exp: document.Values{"a": "a", "b": "b", "a_debug": "a", "b_debug": "b"},
		},
		{
			note: "bundle section beats mode section",
			lib: doc(map[[2]string]document.Values{
				{"debug", "all"}: {"x": "mode"},
				{"all", "app"}:   {"x": "bundle"},
			}),
			exp: document.Values{"x": "bundle"},
		},
		{
			note: "bundle mode section beats bundle section",
			lib: doc(map[[2]string]document.Values{
				{"all", "app"}:   {"x": "bundle"},
				{"debug", "app"}: {"x": "bundle+mode"},
			}),
			exp: document.Values{"x": "bundle+mode"},
		},
		{
			note: "overrides win",
			lib: doc(map[[2]string]document.Values{
				{"all", "all"}:   {"x": "global"},
				{"debug", "app"}: {"x": "bundle+mode"},
			}),
			overrides: config.Overrides{"x": "override"},
			exp:       document.Values{"x": "override"},
		},
		{
			note: "child overrides parent per key",
			lib: doc(map[[2]string]document.Values{
				{"all", "all"}: {"title": "lib", "kept": true},
			}),
			app: doc(map[[2]string]document.Values{
				{"all", "all"}: {"title": "app"},
			}),
			exp: document.Values{"title": "app", "kept": true},
		},
		{
			note: "other modes and bundles are ignored",
			lib: doc(map[[2]string]document.Values{
				{"release", "all"}: {"minify": true},
				{"all", "other"}:   {"x": 1},
			}),
			exp: document.Values{},
		},
		{
			note: "explicit mode",
			lib: doc(map[[2]string]document.Values{
				{"debug", "all"}:   {"minify": false},
				{"release", "all"}: {"minify": true},
			}),
			overrides: config.Overrides{"mode": "release"},
			exp:       document.Values{"minify": true, "mode": "release"},
		},
		{
			note: "development is debug",
			lib: doc(map[[2]string]document.Values{
				{"debug", "all"}:       {"minify": false},
				{"development", "all"}: {"minify": "never read"},
			}),
			overrides: config.Overrides{"mode": "development"},
			exp:       document.Values{"minify": false, "mode": "development"},
		},
		{
			note: "values are replaced not merged",
			lib: doc(map[[2]string]document.Values{
				{"all", "all"}: {"required": []any{"a", "b"}, "opts": map[string]any{"x": 1, "y": 2}},
			}),
			app: doc(map[[2]string]document.Values{
				{"all", "all"}: {"required": []any{"c"}, "opts": map[string]any{"z": 3}},
			}),
			exp: document.Values{"required": []any{"c"}, "opts": map[string]any{"z": 3}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			tempfs.WithTempFS(t, map[string]string{"apps/app/": ""}, func(t *testing.T, root string) {
				l := newMockLoader(root)
				if tc.lib != nil {
					l.docs["."] = tc.lib
				}
				if tc.app != nil {
					l.docs["apps/app"] = tc.app
				}

				lib, err := bundle.New(root, bundle.Library, nil, bundle.WithLoader(l), bundle.WithOverrides(tc.overrides))
				if err != nil {
					t.Fatal(err)
				}
				app, err := bundle.Find(lib, "app")
				if err != nil {
					t.Fatal(err)
				}

				env, err := app.Environment()
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(tc.exp, env); diff != "" {
					t.Fatalf("unexpected environment (-want, +got):\n%s", diff)
				}
			})
		})
	}
}

func TestEnvironmentFromFiles(t *testing.T) {
	tempfs.WithTempFS(t, map[string]string{
		"sc-config.rb": `
config :all, :title => "Library", :minify => false
mode :release do
  config :all, :minify => true
end
`,
		"apps/hello/sc-config.yaml": `
config:
  hello: {title: Hello}
mode:
  release:
    hello: {hash: true}
`,
	}, func(t *testing.T, root string) {
		lib, err := bundle.New(root, bundle.Library, nil, bundle.WithOverrides(config.Overrides{"mode": "release"}))
		if err != nil {
			t.Fatal(err)
		}
		hello, err := bundle.Find(lib, "hello")
		if err != nil {
			t.Fatal(err)
		}

		env, err := hello.Environment()
		if err != nil {
			t.Fatal(err)
		}
		exp := document.Values{"title": "Hello", "minify": true, "hash": true, "mode": "release"}
		if diff := cmp.Diff(exp, env); diff != "" {
			t.Fatalf("unexpected environment (-want, +got):\n%s", diff)
		}

		merged, err := hello.MergedConfigFor("all", "")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(document.Values{"title": "Library", "minify": false}, merged); diff != "" {
			t.Fatalf("unexpected merged section (-want, +got):\n%s", diff)
		}

		missing, err := hello.MergedConfigFor("nope", "nope")
		if err != nil {
			t.Fatal(err)
		}
		if len(missing) != 0 {
			t.Fatalf("expected empty section, got %v", missing)
		}
	})
}

func TestEnvironmentReturnsCopy(t *testing.T) {
	tempfs.WithTempFS(t, map[string]string{"sc-config.yaml": "config: {all: {a: 1}}"}, func(t *testing.T, root string) {
		lib, err := bundle.New(root, bundle.Library, nil)
		if err != nil {
			t.Fatal(err)
		}
		env, err := lib.Environment()
		if err != nil {
			t.Fatal(err)
		}
		env["a"] = 2

		again, err := lib.Environment()
		if err != nil {
			t.Fatal(err)
		}
		if again["a"] != 1 {
			t.Fatalf("expected cached environment to be unaffected, got %v", again)
		}
	})
}

func TestEnvironmentNestedValuesCopied(t *testing.T) {
	tempfs.WithTempFS(t, map[string]string{
		"sc-config.rb":            "config :all, :opts => { :a => 1 }, :list => [1, 2]\n",
		"apps/app/sc-config.yaml": "config: {app: {title: App}}",
	}, func(t *testing.T, root string) {
		cache, err := loader.NewCache(loader.New(), 8)
		if err != nil {
			t.Fatal(err)
		}
		lib, err := bundle.New(root, bundle.Library, nil, bundle.WithLoader(cache))
		if err != nil {
			t.Fatal(err)
		}
		app, err := bundle.Find(lib, "app")
		if err != nil {
			t.Fatal(err)
		}

		env, err := app.Environment()
		if err != nil {
			t.Fatal(err)
		}
		env["opts"].(map[string]any)["injected"] = true
		env["list"].([]any)[0] = "changed"

		exp := document.Values{"opts": map[string]any{"a": 1}, "list": []any{1, 2}, "title": "App"}
		again, err := app.Environment()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(exp, again); diff != "" {
			t.Fatalf("memoized environment modified (-want, +got):\n%s", diff)
		}

		section, err := app.MergedConfigFor("all", "all")
		if err != nil {
			t.Fatal(err)
		}
		section["opts"].(map[string]any)["injected"] = true

		// A second tree reads the cached documents.
		other, err := bundle.New(root, bundle.Library, nil, bundle.WithLoader(cache))
		if err != nil {
			t.Fatal(err)
		}
		libEnv, err := other.Environment()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(document.Values{"opts": map[string]any{"a": 1}, "list": []any{1, 2}}, libEnv); diff != "" {
			t.Fatalf("cached document modified (-want, +got):\n%s", diff)
		}
	})
}

func TestEnvironmentConcurrent(t *testing.T) {
	tempfs.WithTempFS(t, map[string]string{
		"apps/a/frameworks/f/": "",
		"apps/b/":              "",
	}, func(t *testing.T, root string) {
		l := newMockLoader(root)
		l.docs["."] = doc(map[[2]string]document.Values{{"all", "all"}: {"k": "v"}})

		lib, err := bundle.New(root, bundle.Library, nil, bundle.WithLoader(l))
		if err != nil {
			t.Fatal(err)
		}
		all, err := lib.AllBundles()
		if err != nil {
			t.Fatal(err)
		}

		var wg sync.WaitGroup
		merged := make([]*document.Document, 16)
		for i := range merged {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for _, b := range all {
					if _, err := b.Environment(); err != nil {
						t.Error(err)
					}
				}
				merged[i], _ = all[1].MergedConfig()
			}()
		}
		wg.Wait()

		for _, m := range merged[1:] {
			if m != merged[0] {
				t.Fatal("expected a single merged document to be published")
			}
		}
		for _, rel := range []string{".", "apps/a", "apps/a/frameworks/f", "apps/b"} {
			if n := l.count(rel); n != 1 {
				t.Fatalf("expected %s to be loaded once, got %d", rel, n)
			}
		}
	})
}

func TestEnvironments(t *testing.T) {
	tempfs.WithTempFS(t, map[string]string{
		"apps/a/": "",
		"apps/b/": "",
		"apps/c/": "",
	}, func(t *testing.T, root string) {
		l := newMockLoader(root)
		l.docs["apps/b"] = doc(map[[2]string]document.Values{{"all", "all"}: {"who": "b"}})

		lib, err := bundle.New(root, bundle.Library, nil, bundle.WithLoader(l))
		if err != nil {
			t.Fatal(err)
		}
		all, err := lib.AllBundles()
		if err != nil {
			t.Fatal(err)
		}

		envs, err := bundle.Environments(context.Background(), all, 2)
		if err != nil {
			t.Fatal(err)
		}
		exp := map[string]document.Values{
			"a": {},
			"b": {"who": "b"},
			"c": {},
		}
		if diff := cmp.Diff(exp, envs); diff != "" {
			t.Fatalf("unexpected environments (-want, +got):\n%s", diff)
		}

		l.errs["apps/c"] = &loader.EnvironmentalError{Path: filepath.Join(root, "apps", "c"), Err: errors.New("boom")}
		fresh, err := bundle.New(root, bundle.Library, nil, bundle.WithLoader(l))
		if err != nil {
			t.Fatal(err)
		}
		all, err = fresh.AllBundles()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := bundle.Environments(context.Background(), all, 0); !errors.Is(err, loader.ErrEnvironmental) {
			t.Fatalf("expected environmental error, got %v", err)
		}
	})
}

func TestEnvironmentsCanceled(t *testing.T) {
	tempfs.WithTempFS(t, map[string]string{"apps/a/": ""}, func(t *testing.T, root string) {
		lib, err := bundle.New(root, bundle.Library, nil)
		if err != nil {
			t.Fatal(err)
		}
		all, err := lib.AllBundles()
		if err != nil {
			t.Fatal(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := bundle.Environments(ctx, all, 1); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	})
}
