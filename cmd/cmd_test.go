package cmd_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abbot-build/abbot/cmd"
	"github.com/abbot-build/abbot/internal/test/tempfs"
)

var project = map[string]string{
	"sc-config.rb": `
config :all, :title => "Library", :minify => false
mode :release do
  config :all, :minify => true
end
`,
	"apps/hello/sc-config.yaml": "config: {hello: {title: Hello}}",
	"apps/hello/frameworks/ui/": "",
	"frameworks/core/":          "",
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := cmd.NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(t.Context())
	return stdout.String(), err
}

func TestEnv(t *testing.T) {
	tempfs.WithTempFS(t, project, func(t *testing.T, root string) {

		cases := []struct {
			note string
			args []string
			exp  map[string]any
		}{
			{
				note: "root bundle",
				args: []string{"env", root, "-f", "json"},
				exp:  map[string]any{"title": "Library", "minify": false},
			},
			{
				note: "named bundle in release",
				args: []string{"env", root, "-f", "json", "--bundle", "hello", "--mode", "release"},
				exp:  map[string]any{"title": "Hello", "minify": true, "mode": "release"},
			},
			{
				note: "set wins",
				args: []string{"env", root, "-f", "json", "--set", "title=Forced", "--set", "extra=1"},
				exp:  map[string]any{"title": "Forced", "minify": false, "extra": "1"},
			},
		}

		for _, tc := range cases {
			t.Run(tc.note, func(t *testing.T) {
				out, err := run(t, tc.args...)
				if err != nil {
					t.Fatal(err)
				}
				var got map[string]any
				if err := json.Unmarshal([]byte(out), &got); err != nil {
					t.Fatalf("invalid output %q: %v", out, err)
				}
				if diff := cmp.Diff(tc.exp, got); diff != "" {
					t.Fatalf("unexpected environment (-want, +got):\n%s", diff)
				}
			})
		}
	})
}

func TestEnvModeFromEnvironment(t *testing.T) {
	tempfs.WithTempFS(t, project, func(t *testing.T, root string) {
		t.Setenv("ABBOT_MODE", "release")
		t.Setenv("ABBOT_SET_OWNER", "ops")

		out, err := run(t, "env", root, "-f", "json")
		if err != nil {
			t.Fatal(err)
		}
		var got map[string]any
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatal(err)
		}
		exp := map[string]any{"title": "Library", "minify": true, "mode": "release", "owner": "ops"}
		if diff := cmp.Diff(exp, got); diff != "" {
			t.Fatalf("unexpected environment (-want, +got):\n%s", diff)
		}

		// Flags beat the environment.
		out, err = run(t, "env", root, "-f", "json", "--mode", "debug")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, `"minify": false`) {
			t.Fatalf("expected debug environment, got %s", out)
		}
	})
}

func TestEnvConfigFile(t *testing.T) {
	tempfs.WithTempFS(t, project, func(t *testing.T, root string) {
		cfg := filepath.Join(t.TempDir(), "abbot.yaml")
		if err := os.WriteFile(cfg, []byte("mode: release\noverrides: {title: Configured}\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		out, err := run(t, "env", root, "-f", "json", "--config", cfg)
		if err != nil {
			t.Fatal(err)
		}
		var got map[string]any
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatal(err)
		}
		exp := map[string]any{"title": "Configured", "minify": true, "mode": "release"}
		if diff := cmp.Diff(exp, got); diff != "" {
			t.Fatalf("unexpected environment (-want, +got):\n%s", diff)
		}
	})
}

func TestEnvExcludeFromConfig(t *testing.T) {
	tempfs.WithTempFS(t, project, func(t *testing.T, root string) {
		cfg := filepath.Join(t.TempDir(), "abbot.yaml")
		if err := os.WriteFile(cfg, []byte("exclude: [hel*]\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		if _, err := run(t, "env", root, "--bundle", "hello", "--config", cfg); err == nil || !strings.Contains(err.Error(), "bundle not found") {
			t.Fatalf("expected excluded bundle to be missing, got %v", err)
		}
		if _, err := run(t, "env", root, "--bundle", "core", "--config", cfg); err != nil {
			t.Fatal(err)
		}
	})
}

func TestEnvAll(t *testing.T) {
	tempfs.WithTempFS(t, project, func(t *testing.T, root string) {
		out, err := run(t, "env", root, "-f", "json", "--all", "--workers", "2")
		if err != nil {
			t.Fatal(err)
		}
		var got map[string]map[string]any
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatal(err)
		}

		exp := map[string]map[string]any{
			filepath.Base(root): {"title": "Library", "minify": false},
			"core":              {"title": "Library", "minify": false},
			"hello":             {"title": "Hello", "minify": false},
			"hello/ui":          {"title": "Library", "minify": false},
		}
		if diff := cmp.Diff(exp, got); diff != "" {
			t.Fatalf("unexpected environments (-want, +got):\n%s", diff)
		}
	})
}

func TestEnvCompare(t *testing.T) {
	tempfs.WithTempFS(t, project, func(t *testing.T, root string) {
		out, err := run(t, "env", root, "--compare", "release")
		if err != nil {
			t.Fatal(err)
		}
		for _, line := range []string{"--- debug", "+++ release", "-minify: false", "+minify: true"} {
			if !strings.Contains(out, line) {
				t.Fatalf("expected %q in diff:\n%s", line, out)
			}
		}
		if strings.Contains(out, "-title") {
			t.Fatalf("expected unchanged keys to stay out of the diff:\n%s", out)
		}
	})
}

func TestEnvPatch(t *testing.T) {
	tempfs.WithTempFS(t, project, func(t *testing.T, root string) {
		patch := filepath.Join(t.TempDir(), "patch.json")
		if err := os.WriteFile(patch, []byte(`[{"op": "replace", "path": "/title", "value": "Patched"}, {"op": "remove", "path": "/minify"}]`), 0o644); err != nil {
			t.Fatal(err)
		}

		out, err := run(t, "env", root, "-f", "json", "--patch", patch)
		if err != nil {
			t.Fatal(err)
		}
		var got map[string]any
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(map[string]any{"title": "Patched"}, got); diff != "" {
			t.Fatalf("unexpected environment (-want, +got):\n%s", diff)
		}
	})
}

func TestEnvErrors(t *testing.T) {
	tempfs.WithTempFS(t, project, func(t *testing.T, root string) {

		cases := []struct {
			note string
			args []string
			exp  string
		}{
			{note: "unknown bundle", args: []string{"env", root, "--bundle", "nope"}, exp: "bundle not found"},
			{note: "bad set", args: []string{"env", root, "--set", "novalue"}, exp: "expected key=value"},
			{note: "table format", args: []string{"env", root, "-f", "table"}, exp: "not supported"},
			{note: "missing root", args: []string{"env", filepath.Join(root, "missing")}, exp: "does not exist"},
			{note: "bad format", args: []string{"env", root, "-f", "xml"}, exp: "xml"},
		}

		for _, tc := range cases {
			t.Run(tc.note, func(t *testing.T) {
				_, err := run(t, tc.args...)
				if err == nil || !strings.Contains(err.Error(), tc.exp) {
					t.Fatalf("expected error containing %q, got %v", tc.exp, err)
				}
			})
		}
	})
}

func TestBundles(t *testing.T) {
	tempfs.WithTempFS(t, project, func(t *testing.T, root string) {
		out, err := run(t, "bundles", root, "-f", "json")
		if err != nil {
			t.Fatal(err)
		}

		type row struct {
			Name   string `json:"name"`
			Type   string `json:"type"`
			Parent string `json:"parent"`
		}
		var got []row
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatal(err)
		}

		lib := filepath.Base(root)
		exp := []row{
			{Name: lib, Type: "library"},
			{Name: "hello", Type: "app", Parent: lib},
			{Name: "hello/ui", Type: "framework", Parent: "hello"},
			{Name: "core", Type: "framework", Parent: lib},
		}
		if diff := cmp.Diff(exp, got); diff != "" {
			t.Fatalf("unexpected bundles (-want, +got):\n%s", diff)
		}

		out, err = run(t, "bundles", root)
		if err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"NAME", "hello/ui", "framework"} {
			if !strings.Contains(strings.ToUpper(out), strings.ToUpper(name)) {
				t.Fatalf("expected %q in table:\n%s", name, out)
			}
		}
	})
}

func TestCheck(t *testing.T) {
	tempfs.WithTempFS(t, project, func(t *testing.T, root string) {
		out, err := run(t, "check", root)
		if err != nil {
			t.Fatal(err)
		}
		if strings.TrimSpace(out) != "4 bundles ok" {
			t.Fatalf("unexpected output %q", out)
		}

		broken := filepath.Join(root, "apps", "hello", "frameworks", "ui", "sc-config.rb")
		if err := os.WriteFile(broken, []byte("config :all do |c|\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err = run(t, "check", root)
		if err == nil || !strings.Contains(err.Error(), "hello/ui") || !strings.Contains(err.Error(), broken) {
			t.Fatalf("expected syntax error naming the bundle and file, got %v", err)
		}
	})
}

func TestSchema(t *testing.T) {
	out, err := run(t, "schema")
	if err != nil {
		t.Fatal(err)
	}
	var schema map[string]any
	if err := json.Unmarshal([]byte(out), &schema); err != nil {
		t.Fatal(err)
	}
	if _, ok := schema["properties"].(map[string]any)["overrides"]; !ok {
		t.Fatalf("expected overrides in schema:\n%s", out)
	}
}

func TestMetricsFile(t *testing.T) {
	tempfs.WithTempFS(t, project, func(t *testing.T, root string) {
		path := filepath.Join(t.TempDir(), "abbot.prom")
		if _, err := run(t, "check", root, "--metrics-file", path); err != nil {
			t.Fatal(err)
		}
		bs, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(bs), "abbot_bundles_discovered_total") {
			t.Fatalf("expected bundle metrics in:\n%s", bs)
		}
	})
}
