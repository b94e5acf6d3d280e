package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "floatcheck",
		Short: "Fetch and display float values on Steam market listings",
		Long: `floatcheck drives a browser tab on a Steam Community Market listing page
and fetches the float value and paint seed of each listing, one at a time,
from an inspection backend.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	cmd.AddCommand(newRunCmd(&configPath))
	cmd.AddCommand(newBackendCmd(&configPath))
	cmd.AddCommand(newEnqueueCmd(&configPath))

	return cmd
}
