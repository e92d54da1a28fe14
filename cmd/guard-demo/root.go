package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the demo CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guard-demo",
		Short: "Campus portal guarded by role",
		Long: `guard-demo serves a login page and student, admin and security
areas, each behind a route guard.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHashCmd())

	return cmd
}
