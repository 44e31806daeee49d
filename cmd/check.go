package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

func newCheckCommand(params *rootParams) *cobra.Command {
	return &cobra.Command{
		Use:   "check [path]",
		Short: "Load the configuration of every bundle and report errors",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, params)
		},
	}
}

func runCheck(cmd *cobra.Command, args []string, params *rootParams) error {
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

	bundles := slices.Insert(all, 0, root)
	for _, b := range bundles {
		if _, err := b.MergedConfig(); err != nil {
			return fmt.Errorf("bundle %s: %w", b.BundleName(), err)
		}
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d bundles ok\n", len(bundles))
	return err
}
