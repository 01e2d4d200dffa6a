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

// GetPullCmd returns the one-shot pull command: latest stored clip to the clipboard.
func GetPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull the latest stored clip onto the local clipboard",
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

			clip, err := remote.Pull(ctx)
			if err != nil {
				fmt.Printf("Failed to reach server: %v\n", err)
				os.Exit(1)
			}
			if clip == nil {
				fmt.Println("No clip available.")
				os.Exit(1)
			}

			payload, err := model.DecodePayload(clip.Type, string(clip.PayloadBytes()))
			if err != nil {
				fmt.Printf("Stored clip is unusable: %v\n", err)
				os.Exit(1)
			}
			if err := clipboard.NewSystem().Write(ctx, clip.Type, payload); err != nil {
				fmt.Printf("Failed to set clipboard: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("Clipboard updated (%s from %s)\n", clip.Type, clip.Source)
		},
	}
	cmd.Flags().String(FlagServerURL, "", "(optional) store server base URL, overrides "+config.EnvServerURL)
	cmd.Flags().String(FlagSource, "", "(optional) endpoint origin (desktop|phone), overrides "+config.EnvSource)

	return cmd
}

func init() {
	rootCmd.AddCommand(GetPullCmd())
}
