package main

//
//  @title           tradebridge API
//  @version         1.0
//  @description     Bridges MetaTrader 5 order intents to Interactive Brokers TWS.
//  @termsOfService  https://github.com/guttosm/tradebridge
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/tradebridge
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8000
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        bridge
//  @tag.description Order submission and venue connectivity
//
//  @tag.name        health
//  @tag.description Liveness and readiness checks

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/guttosm/tradebridge/config"
	_ "github.com/guttosm/tradebridge/docs" // swagger docs
	"github.com/guttosm/tradebridge/internal/logger"
)

// newRootCmd builds the tradebridge command tree.
//
// Commands:
//   - serve:   Starts the HTTP bridge (default when no command is given).
//   - symbols: Prints the loaded symbol registry.
//   - migrate: Applies the symbol_mappings schema with goose.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tradebridge",
		Short:         "MT5 to IBKR order bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load configuration from environment or .env file
			config.LoadConfig()
			logger.Init()
		},
	}

	serve := newServeCmd()
	root.AddCommand(serve, newSymbolsCmd(), newMigrateCmd())

	// bare invocation behaves like "serve"
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.L().Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
