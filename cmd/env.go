package cmd

import (
	"bytes"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/akedrou/textdiff"
	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/abbot-build/abbot/internal/config"
	"github.com/abbot-build/abbot/internal/jsonpatch"
	"github.com/abbot-build/abbot/pkg/bundle"
)

type envParams struct {
	bundle  string
	mode    string
	set     []string
	format  outputFormat
	compare string
	patch   string
	all     bool
	workers int
}

func newEnvCommand(params *rootParams) *cobra.Command {
	p := envParams{format: outputYAML}

	env := &cobra.Command{
		Use:   "env [path]",
		Short: "Print the resolved environment of a bundle",
		Long: `Print the resolved environment of a bundle.

The environment is resolved for the active mode, selected with --mode, the
ABBOT_MODE environment variable or the configuration file, "debug" by default.
Values given with --set override everything else.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd, args, params, p)
		},
	}

	flags := env.Flags()
	flags.StringVarP(&p.bundle, "bundle", "b", "", "name of the bundle (default: the root bundle)")
	flags.StringVarP(&p.mode, "mode", "m", "", "active mode")
	flags.StringArrayVar(&p.set, "set", nil, "override a value, as key=value (repeatable)")
	flags.VarP(enumflag.New(&p.format, "format", outputFormatIds, enumflag.EnumCaseInsensitive), "format", "f", "output format: json or yaml")
	flags.StringVar(&p.compare, "compare", "", "print a diff against the environment in this mode")
	flags.StringVar(&p.patch, "patch", "", "apply the JSON patch in this file to the output")
	flags.BoolVar(&p.all, "all", false, "print the environments of all bundles")
	flags.IntVar(&p.workers, "workers", runtime.GOMAXPROCS(0), "number of bundles resolved concurrently with --all")

	env.MarkFlagsMutuallyExclusive("all", "bundle")
	env.MarkFlagsMutuallyExclusive("all", "compare")

	return env
}

func runEnv(cmd *cobra.Command, args []string, params *rootParams, p envParams) error {
	if p.format == outputTable {
		return fmt.Errorf("table output is not supported for environments")
	}

	overrides, err := parseSet(p.set)
	if err != nil {
		return err
	}
	flags := map[string]any{}
	if p.mode != "" {
		flags["mode"] = p.mode
	}
	if len(overrides) > 0 {
		flags["overrides"] = overrides
	}

	s, err := newSession(cmd, params, flags)
	if err != nil {
		return err
	}

	var patch jsonpatch.Patch
	if p.patch != "" {
		if patch, err = jsonpatch.ReadFile(p.patch); err != nil {
			return err
		}
	}

	root, err := s.open(pathArg(args))
	if err != nil {
		return err
	}

	if p.all {
		return writeAll(cmd, root, p, patch)
	}

	env, err := resolve(root, p.bundle, patch)
	if err != nil {
		return err
	}

	if p.compare == "" {
		return write(cmd.OutOrStdout(), p.format, env)
	}

	active := s.config.OverrideState()
	other := s.config.OverrideState()
	other[config.ModeKey] = p.compare

	otherRoot, err := s.openWith(pathArg(args), other)
	if err != nil {
		return err
	}
	otherEnv, err := resolve(otherRoot, p.bundle, patch)
	if err != nil {
		return err
	}

	// The mode key always differs and says nothing about the configuration.
	delete(env, config.ModeKey)
	delete(otherEnv, config.ModeKey)

	var a, b bytes.Buffer
	if err := write(&a, p.format, env); err != nil {
		return err
	}
	if err := write(&b, p.format, otherEnv); err != nil {
		return err
	}

	diff := textdiff.Unified(active.Mode(), other.Mode(), a.String(), b.String())
	_, err = fmt.Fprint(cmd.OutOrStdout(), diff)
	return err
}

func resolve(root *bundle.Bundle, name string, patch jsonpatch.Patch) (bundle.Values, error) {
	b := root
	if name != "" {
		var err error
		if b, err = bundle.Find(root, name); err != nil {
			return nil, err
		}
	}

	env, err := b.Environment()
	if err != nil {
		return nil, err
	}
	if patch == nil {
		return env, nil
	}
	return jsonpatch.Apply(patch, env)
}

func writeAll(cmd *cobra.Command, root *bundle.Bundle, p envParams, patch jsonpatch.Patch) error {
	all, err := root.AllBundles()
	if err != nil {
		return err
	}

	envs, err := bundle.Environments(cmd.Context(), slices.Insert(all, 0, root), p.workers)
	if err != nil {
		return err
	}

	result := make(map[string]any, len(envs))
	for name, env := range envs {
		if patch != nil {
			if env, err = jsonpatch.Apply(patch, env); err != nil {
				return fmt.Errorf("bundle %s: %w", name, err)
			}
		}
		result[name] = env
	}
	return write(cmd.OutOrStdout(), p.format, result)
}

// parseSet parses key=value pairs. Values are kept as strings.
func parseSet(pairs []string) (map[string]any, error) {
	result := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set value %q, expected key=value", pair)
		}
		result[k] = v
	}
	return result, nil
}
