package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdnet-eval/internal/conf"
)

// Command creates the config command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or save the effective configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return conf.WriteYAML(cmd.OutOrStdout(), settings)
		},
	}

	saveCmd := &cobra.Command{
		Use:   "save <path>",
		Short: "Write the merged configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.ValidateSettings(settings); err != nil {
				return err
			}
			if err := conf.SaveYAMLConfig(args[0], settings); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "configuration saved to %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(showCmd, saveCmd)
	return cmd
}
