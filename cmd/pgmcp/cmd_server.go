package pgmcp

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pgmcp/pgmcp/internal/pgmcp"
)

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVarP(&serverAddr, "addr", "a", "", "listen address, default 0.0.0.0:8000")
	serverCmd.Flags().StringVarP(&serverConfigPath, "config", "c", "", "config dir")
	serverCmd.Flags().StringVarP(&serverBackend, "backend", "b", "", "backend mode: auto, postgres or mock")
	serverCmd.Flags().StringVarP(&serverAPIKey, "api-key", "k", "", "shared secret required in the X-API-Key header")
}

var (
	serverAddr       string
	serverConfigPath string
	serverBackend    string
	serverAPIKey     string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the gateway HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		cmdConf := map[string]any{"debug": Debug}
		if serverAddr != "" {
			cmdConf["http_addr"] = serverAddr
		}
		if serverBackend != "" {
			cmdConf["backend"] = serverBackend
		}
		if serverAPIKey != "" {
			cmdConf["api_key"] = serverAPIKey
		}

		m := pgmcp.New()
		if err := m.Run(serverConfigPath, cmdConf); err != nil {
			log.Err(err).Msg("failed to start server")
			return
		}
	},
}
