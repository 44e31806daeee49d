// Package cmd implements the abbot command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/abbot-build/abbot/internal/config"
	"github.com/abbot-build/abbot/internal/logging"
	"github.com/abbot-build/abbot/pkg/bundle"
)

var logLevelIds = map[logging.Level][]string{
	logging.Debug: {"debug"},
	logging.Info:  {"info"},
	logging.Warn:  {"warn"},
	logging.Error: {"error"},
}

var logFormatIds = map[logFormat][]string{
	logFormatText: {"text"},
	logFormatJSON: {"json"},
}

type logFormat enumflag.Flag

const (
	logFormatText logFormat = iota
	logFormatJSON
)

type rootParams struct {
	configFiles []string
	logLevel    logging.Level
	logFormat   logFormat
	metricsFile string
}

// NewRootCommand returns the abbot command with all subcommands.
func NewRootCommand() *cobra.Command {
	params := &rootParams{logLevel: logging.Info}

	root := &cobra.Command{
		Use:           "abbot",
		Short:         "Resolve the configuration of build bundle trees",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if params.metricsFile == "" {
				return nil
			}
			return prometheus.WriteToTextfile(params.metricsFile, prometheus.DefaultGatherer)
		},
	}

	flags := root.PersistentFlags()
	flags.StringArrayVarP(&params.configFiles, "config", "c", nil, "configuration file or directory (repeatable, merged in order)")
	flags.Var(enumflag.New(&params.logLevel, "level", logLevelIds, enumflag.EnumCaseInsensitive), "log-level", "log level: debug, info, warn or error")
	flags.Var(enumflag.New(&params.logFormat, "format", logFormatIds, enumflag.EnumCaseInsensitive), "log-format", "log format: text or json")
	flags.StringVar(&params.metricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")

	root.AddCommand(
		newBundlesCommand(params),
		newEnvCommand(params),
		newCheckCommand(params),
		newSchemaCommand(),
	)
	return root
}

// session is the process state shared by the subcommands: the effective
// configuration and the objects built from it.
type session struct {
	config  *config.Root
	log     *logging.Logger
	cache   *bundle.Cache
	exclude bundle.Option
}

// newSession loads the configuration files, applies the environment and then
// the flags that were given on the command line, flags last.
func newSession(cmd *cobra.Command, params *rootParams, flagOverrides map[string]any) (*session, error) {
	env, err := config.ParseEnv(os.Environ())
	if err != nil {
		return nil, err
	}

	files := params.configFiles
	if len(files) == 0 {
		files = env.Config
	}

	root, err := config.Load(files, env)
	if err != nil {
		return nil, err
	}

	flags := map[string]any{}
	logFlags := map[string]any{}
	if cmd.Flags().Changed("log-level") {
		logFlags["level"] = logLevelIds[params.logLevel][0]
	}
	if cmd.Flags().Changed("log-format") {
		logFlags["format"] = logFormatIds[params.logFormat][0]
	}
	if len(logFlags) > 0 {
		flags["log"] = logFlags
	}
	for k, v := range flagOverrides {
		flags[k] = v
	}
	if err := root.ApplyOverrides(flags); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(root.Log.Level)
	if err != nil {
		return nil, err
	}
	log := logging.NewLogger(logging.Config{
		Level:  level,
		Format: logging.Format(root.Log.Format),
		Output: cmd.ErrOrStderr(),
	})

	cache, err := bundle.NewCache(root.Cache.Size, log)
	if err != nil {
		return nil, fmt.Errorf("invalid cache size: %w", err)
	}

	globs, err := root.ExcludeGlobs()
	if err != nil {
		return nil, err
	}

	log.Debugf("configuration loaded from %d file(s), mode %s", len(files), root.OverrideState().Mode())

	return &session{config: root, log: log, cache: cache, exclude: bundle.WithExcludeGlobs(globs...)}, nil
}

// open returns the root bundle at path with the session's override state.
func (s *session) open(path string) (*bundle.Bundle, error) {
	return s.openWith(path, s.config.OverrideState())
}

func (s *session) openWith(path string, overrides config.Overrides) (*bundle.Bundle, error) {
	return bundle.Open(path,
		bundle.WithCache(s.cache),
		bundle.WithLogger(s.log),
		bundle.WithOverrides(overrides),
		s.exclude,
	)
}

func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
