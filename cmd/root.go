// Package cmd defines the admetric command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "admetric",
	Short: "admetric - multi-agent campaign chat service",
	Long: `admetric answers paid-media questions over HTTP: budget insight
requests hit the metrics warehouse, open questions go through web search,
and everything else falls back to plain chat.

Run 'admetric serve' to start the HTTP server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
