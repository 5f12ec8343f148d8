// Package cli wires the vitrina command tree: the server plus site and
// admin management commands.
package cli

import (
	"github.com/spf13/cobra"
)

var Version string

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:   "vitrina",
	Short: "Multi-tenant landing page host",
	Long: `Vitrina hosts landing pages under subdomains and custom domains.

Each site gets a subdomain of the base domain, an optional custom domain,
a promo video, and an optional downloadable file gated by device type and
visitor country.`,
	Version: Version,
	// Default to serve when invoked without a subcommand.
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runServe()
		}
		return cmd.Help()
	},
}

// Execute is called by main
func Execute(version string) error {
	Version = version
	RootCmd.Version = version
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(siteCmd)
	RootCmd.AddCommand(adminCmd)
	RootCmd.AddCommand(healthcheckCmd)
}
