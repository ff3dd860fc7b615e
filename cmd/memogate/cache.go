package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pario-ai/memogate/pkg/client"
	"github.com/pario-ai/memogate/pkg/config"
)

func newCacheCmd() *cobra.Command {
	var configPath, addr string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear a running server's result cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			stats, err := client.New(client.BaseURL(addr, cfg.Listen), cfg.AdminToken).CacheStats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Entries:   %d/%d\nHits:      %d\nMisses:    %d\nEvictions: %d\nHit rate:  %.1f%%\nTTL:       %ds\n",
				stats.Size, stats.MaxSize, stats.Hits, stats.Misses, stats.Evictions, stats.HitRate*100, stats.TTLSeconds)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := client.New(client.BaseURL(addr, cfg.Listen), cfg.AdminToken).ClearCache(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("All cache entries cleared.")
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "memogate.yaml", "path to config file")
	cmd.PersistentFlags().StringVar(&addr, "addr", "", "server address (defaults to the configured listen address)")
	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
