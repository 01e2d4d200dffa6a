package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/clipbridge/clipbridge/clipboard"
	"github.com/clipbridge/clipbridge/config"
	"github.com/clipbridge/clipbridge/model"
	"github.com/clipbridge/clipbridge/service/client"
)

// GetPushCmd returns the one-shot push command: current clipboard to the store.
func GetPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push the current clipboard content to the shared store",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.FromEnv()
			if err != nil {
				log.Fatalf("config: %v", err)
			}
			applySyncFlags(cmd, cfg)

			ctx, stop := signalContext()
			defer stop()

			kind, payload, err := clipboard.NewSystem().Read(ctx)
			if err != nil {
				fmt.Println("Clipboard is empty or unsupported.")
				os.Exit(1)
			}

			remote, err := client.NewClient(cfg.ServerURL, cfg.Source, cfg.HTTPTimeout)
			if err != nil {
				log.Fatalf("client init: %v", err)
			}

			data := model.EncodePayload(kind, payload)
			if err := remote.Push(ctx, kind, data, model.DefaultMime(kind)); err != nil {
				fmt.Printf("Failed to push clipboard: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("Sent %s to server at %s\n", kind, cfg.ServerURL)
		},
	}
	cmd.Flags().String(FlagServerURL, "", "(optional) store server base URL, overrides "+config.EnvServerURL)
	cmd.Flags().String(FlagSource, "", "(optional) endpoint origin (desktop|phone), overrides "+config.EnvSource)

	return cmd
}

func init() {
	rootCmd.AddCommand(GetPushCmd())
}
