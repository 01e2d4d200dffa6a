package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clipbridge/clipbridge/logging"
)

const FlagDebug = "debug"

// rootCmd is a base command.
var rootCmd = &cobra.Command{
	Use:   "clipbridge",
	Short: "Clipboard bridge: shared clip store server and per-endpoint sync engine",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, err := cmd.Flags().GetBool(FlagDebug)
		if err != nil {
			log.Fatalf("%s flag: %v", FlagDebug, err)
		}
		logging.Init(debug)
	},
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func main() {
	defer logging.Sync()

	rootCmd.PersistentFlags().Bool(FlagDebug, false, "(optional) enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("rootCmd.Execute: %v", err)
	}
}
