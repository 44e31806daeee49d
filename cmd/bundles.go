package cmd

import (
	"slices"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"
)

type bundlesParams struct {
	format outputFormat
}

func newBundlesCommand(params *rootParams) *cobra.Command {
	var p bundlesParams

	bundles := &cobra.Command{
		Use:   "bundles [path]",
		Short: "List the bundles of a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBundles(cmd, args, params, p)
		},
	}

	bundles.Flags().VarP(enumflag.New(&p.format, "format", outputFormatIds, enumflag.EnumCaseInsensitive), "format", "f", "output format: table, json or yaml")

	return bundles
}

func runBundles(cmd *cobra.Command, args []string, params *rootParams, p bundlesParams) error {
	s, err := newSession(cmd, params, nil)
	if err != nil {
		return err
	}

	root, err := s.open(pathArg(args))
	if err != nil {
		return err
	}
	all, err := root.AllBundles()
	if err != nil {
		return err
	}

	infos := describe(slices.Insert(all, 0, root))
	if p.format == outputTable {
		return writeTable(cmd.OutOrStdout(), infos)
	}
	return write(cmd.OutOrStdout(), p.format, infos)
}
