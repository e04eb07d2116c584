package pgmcp

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	// windows only
	cobra.MousetrapHelpText = ""

	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "debug")
	rootCmd.PersistentPreRun = initLog
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Err(err).Msg("command execution failed")
	}
}

var rootCmd = &cobra.Command{
	Use:     "pgmcp",
	Short:   "PostgreSQL admin gateway speaking MCP over JSON-RPC",
	Long:    `pgmcp exposes PostgreSQL administration and analytics tools over a JSON-RPC 2.0 HTTP endpoint, falling back to an embedded substitute backend when the database is unreachable.`,
	Example: `pgmcp server --addr 0.0.0.0:8000`,
	Args:    cobra.MinimumNArgs(0),
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Run: Root,
}

func Root(cmd *cobra.Command, args []string) {
	_ = cmd.Help()
}
