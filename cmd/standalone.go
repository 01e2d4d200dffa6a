package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/clipbridge/clipbridge/clipboard"
	"github.com/clipbridge/clipbridge/config"
	"github.com/clipbridge/clipbridge/logging"
	"github.com/clipbridge/clipbridge/service/client"
	"github.com/clipbridge/clipbridge/service/engine"
	"github.com/clipbridge/clipbridge/service/server"
	"github.com/clipbridge/clipbridge/storage"
)

// GetStandaloneCmd returns the all-in-one command: an embedded store server plus
// the sync engine for this endpoint in a single process.
func GetStandaloneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standalone",
		Short: "Run the store server and the sync engine in one process",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.FromEnv()
			if err != nil {
				log.Fatalf("config: %v", err)
			}
			applyServerFlags(cmd, cfg)
			applySyncFlags(cmd, cfg)

			ctx, stop := signalContext()
			defer stop()

			backend, err := buildBackend(cfg)
			if err != nil {
				log.Fatalf("store backend: %v", err)
			}
			store, err := storage.NewStore(ctx, backend, logging.Named("store"))
			if err != nil {
				log.Fatalf("store init: %v", err)
			}
			svc, err := server.NewService(store, logging.Named("server"))
			if err != nil {
				log.Fatalf("service init: %v", err)
			}

			// The engine talks to the embedded server over loopback.
			baseURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
			remote, err := client.NewClient(baseURL, cfg.Source, cfg.HTTPTimeout)
			if err != nil {
				log.Fatalf("client init: %v", err)
			}
			eng, err := engine.NewEngine(cfg.Source, remote, clipboard.NewSystem(), cfg.PollInterval, logging.Named("engine"))
			if err != nil {
				log.Fatalf("engine init: %v", err)
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return svc.ListenAndServe(gctx, cfg.Addr())
			})
			g.Go(func() error {
				return eng.Run(gctx)
			})

			if err := g.Wait(); err != nil {
				log.Fatalf("standalone: %v", err)
			}
		},
	}
	cmd.Flags().String(FlagHost, "", "(optional) bind host, overrides "+config.EnvHost)
	cmd.Flags().Int(FlagPort, 0, "(optional) bind port, overrides "+config.EnvPort)
	cmd.Flags().String(FlagStore, "", "(optional) store backend (file|memory|redis), overrides "+config.EnvStore)
	cmd.Flags().String(FlagStorePath, "", "(optional) file backend path, overrides "+config.EnvStorePath)
	cmd.Flags().String(FlagSource, "", "(optional) endpoint origin (desktop|phone), overrides "+config.EnvSource)
	cmd.Flags().Duration(FlagPollInterval, 0, "(optional) poll interval, overrides "+config.EnvPollInterval)

	return cmd
}

func init() {
	rootCmd.AddCommand(GetStandaloneCmd())
}
