package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/clipbridge/clipbridge/config"
	"github.com/clipbridge/clipbridge/logging"
	"github.com/clipbridge/clipbridge/service/server"
	"github.com/clipbridge/clipbridge/storage"
)

const (
	FlagHost      = "host"
	FlagPort      = "port"
	FlagStore     = "store"
	FlagStorePath = "store-path"
)

// GetServerCmd returns the clip store server start command.
func GetServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the shared clip store server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.FromEnv()
			if err != nil {
				log.Fatalf("config: %v", err)
			}
			applyServerFlags(cmd, cfg)

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

			if err := svc.ListenAndServe(ctx, cfg.Addr()); err != nil {
				log.Fatalf("server: %v", err)
			}
		},
	}
	cmd.Flags().String(FlagHost, "", "(optional) bind host, overrides "+config.EnvHost)
	cmd.Flags().Int(FlagPort, 0, "(optional) bind port, overrides "+config.EnvPort)
	cmd.Flags().String(FlagStore, "", "(optional) store backend (file|memory|redis), overrides "+config.EnvStore)
	cmd.Flags().String(FlagStorePath, "", "(optional) file backend path, overrides "+config.EnvStorePath)

	return cmd
}

// applyServerFlags overrides env-derived config with explicitly set flags.
func applyServerFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed(FlagHost) {
		cfg.Host, _ = cmd.Flags().GetString(FlagHost)
	}
	if cmd.Flags().Changed(FlagPort) {
		cfg.Port, _ = cmd.Flags().GetInt(FlagPort)
	}
	if cmd.Flags().Changed(FlagStore) {
		cfg.Store, _ = cmd.Flags().GetString(FlagStore)
	}
	if cmd.Flags().Changed(FlagStorePath) {
		cfg.StorePath, _ = cmd.Flags().GetString(FlagStorePath)
	}
}

// buildBackend builds the persistence backend selected by the config.
func buildBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Store {
	case config.FileStore:
		return storage.NewFileBackend(cfg.StorePath)
	case config.MemoryStore:
		return storage.NewMemoryBackend(), nil
	case config.RedisStore:
		return storage.NewRedisBackend(cfg.RedisAddr, cfg.RedisKey)
	}

	return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store)
}

func init() {
	rootCmd.AddCommand(GetServerCmd())
}
