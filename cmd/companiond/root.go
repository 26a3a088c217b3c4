package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "companiond",
		Short:         "Voice companion backend worker",
		Long:          "companiond resolves callers, loads their conversational context and drives companion call sessions.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	cmd.AddCommand(newRunCmd(&configPath))
	return cmd
}
