package main

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipbridge/clipbridge/clipboard"
	"github.com/clipbridge/clipbridge/config"
	"github.com/clipbridge/clipbridge/logging"
	"github.com/clipbridge/clipbridge/model"
	"github.com/clipbridge/clipbridge/service/client"
	"github.com/clipbridge/clipbridge/service/engine"
)

const (
	FlagServerURL    = "server-url"
	FlagSource       = "source"
	FlagPollInterval = "poll-interval"
)

// GetSyncCmd returns the continuous sync engine start command.
func GetSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Keep the local clipboard converging with the shared store",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.FromEnv()
			if err != nil {
				log.Fatalf("config: %v", err)
			}
			applySyncFlags(cmd, cfg)

			ctx, stop := signalContext()
			defer stop()

			remote, err := client.NewClient(cfg.ServerURL, cfg.Source, cfg.HTTPTimeout)
			if err != nil {
				log.Fatalf("client init: %v", err)
			}
			eng, err := engine.NewEngine(cfg.Source, remote, clipboard.NewSystem(), cfg.PollInterval, logging.Named("engine"))
			if err != nil {
				log.Fatalf("engine init: %v", err)
			}

			if err := eng.Run(ctx); err != nil {
				log.Fatalf("engine: %v", err)
			}
		},
	}
	cmd.Flags().String(FlagServerURL, "", "(optional) store server base URL, overrides "+config.EnvServerURL)
	cmd.Flags().String(FlagSource, "", "(optional) endpoint origin (desktop|phone), overrides "+config.EnvSource)
	cmd.Flags().Duration(FlagPollInterval, 0, "(optional) poll interval, overrides "+config.EnvPollInterval)

	return cmd
}

// applySyncFlags overrides env-derived config with explicitly set flags.
func applySyncFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed(FlagServerURL) {
		cfg.ServerURL, _ = cmd.Flags().GetString(FlagServerURL)
	}
	if cmd.Flags().Changed(FlagSource) {
		v, _ := cmd.Flags().GetString(FlagSource)
		source, err := model.ParseOrigin(v)
		if err != nil {
			log.Fatalf("%s flag: %v", FlagSource, err)
		}
		cfg.Source = source
	}
	if cmd.Flags().Changed(FlagPollInterval) {
		var dur time.Duration
		dur, _ = cmd.Flags().GetDuration(FlagPollInterval)
		if dur <= 0 {
			log.Fatalf("%s flag: must be GT 0", FlagPollInterval)
		}
		cfg.PollInterval = dur
	}
}

func init() {
	rootCmd.AddCommand(GetSyncCmd())
}
