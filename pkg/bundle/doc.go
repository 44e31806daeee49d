// Package bundle resolves the configuration of a tree of build bundles.
//
// A bundle is a directory holding an optional configuration file and,
// optionally, apps/, clients/ and frameworks/ directories with more bundles.
// The tree is rooted at a library bundle opened with Open.
//
// # Basic Usage
//
// Open the root and read the environment of one of its bundles:
//
//	import "github.com/abbot-build/abbot/pkg/bundle"
//
//	root, err := bundle.Open("/path/to/project",
//	    bundle.WithOverrides(bundle.Overrides{"mode": "release"}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	app, err := bundle.Find(root, "hello")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	env, err := app.Environment()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(env["title"])
//
// # Configuration Files
//
// The first of these files found in a bundle directory is loaded:
//
//	sc-config       declaration script
//	sc-config.rb    declaration script
//	sc-config.yaml  structured YAML
//	sc-config.yml   structured YAML
//	sc-config.json  structured JSON, comments allowed
//
// A declaration script sets values per mode and section:
//
//	config :all, :title => "Hello"
//
//	mode :release do
//	  config :all do |c|
//	    c[:minify] = true
//	  end
//	end
//
//	proxy '/api', :to => 'localhost:3000'
//
// The structured forms carry the same content:
//
//	config:
//	  all: {title: Hello}
//	mode:
//	  release:
//	    all: {minify: true}
//	proxy:
//	  /api: {to: localhost:3000}
//
// # Precedence
//
// The environment of a bundle is built from its merged configuration, the
// bundle's own file laid over the merged configuration of its parent. Keys
// are taken, in increasing precedence, from:
//
//   - section "all" of mode "all"
//   - section "all" of the active mode
//   - the bundle's own section of mode "all"
//   - the bundle's own section of the active mode
//   - the overrides
//
// Every layer replaces whole values; nested maps and lists are not merged.
// The active mode is the "mode" override, "debug" by default.
//
// # Caching
//
// Everything a Bundle derives is computed once. Pass a cache created with
// NewCache to share parsed files between several trees of the same project,
// for instance one per mode:
//
//	cache, _ := bundle.NewCache(256, nil)
//	debug, _ := bundle.Open(dir, bundle.WithCache(cache))
//	release, _ := bundle.Open(dir, bundle.WithCache(cache),
//	    bundle.WithOverrides(bundle.Overrides{"mode": "release"}))
//
// # Thread Safety
//
// Bundles are safe for concurrent use. Environments resolves many bundles in
// parallel.
package bundle
