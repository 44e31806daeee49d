package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abbot-build/abbot/internal/config"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bs, err := config.ReflectSchema()
			if err != nil {
				return err
			}
			bs = append(bs, '\n')
			_, err = cmd.OutOrStdout().Write(bs)
			return err
		},
	}
}
