package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pario-ai/memogate/pkg/client"
	"github.com/pario-ai/memogate/pkg/config"
	"github.com/pario-ai/memogate/pkg/logging"
	"github.com/pario-ai/memogate/pkg/mcp"
	"github.com/pario-ai/memogate/pkg/tracker"
)

func newMCPCmd() *cobra.Command {
	var configPath, addr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve request log and live server state as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// stdout carries the protocol; logs go to stderr as JSON.
			log, err := logging.New(os.Stderr, cfg.Log.Level, "json")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			var tr tracker.Tracker
			if cfg.Tracker.Enabled {
				st, err := tracker.New(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("init tracker: %w", err)
				}
				defer func() { _ = st.Close() }()
				tr = st
			}

			srv := mcp.New(tr, client.New(client.BaseURL(addr, cfg.Listen), cfg.AdminToken), version, log)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "memogate.yaml", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "server address (defaults to the configured listen address)")
	return cmd
}
