package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pario-ai/memogate/pkg/client"
	"github.com/pario-ai/memogate/pkg/config"
)

func newLimitCmd() *cobra.Command {
	var configPath, addr string

	cmd := &cobra.Command{
		Use:   "limit",
		Short: "Inspect a running server's rate limiter",
	}

	var clientID string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show window usage for a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			st, err := client.New(client.BaseURL(addr, cfg.Listen), cfg.AdminToken).LimitStatus(cmd.Context(), clientID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "CLIENT\t%s\n", st.ClientID)
			fmt.Fprintf(w, "NEXT\t%s\n", st.Reason)
			fmt.Fprintln(w, "WINDOW\tUSED\tLIMIT\tREMAINING")
			fmt.Fprintf(w, "minute\t%d\t%d\t%d\n", st.CountShort, st.LimitShort, st.RemainingShort)
			fmt.Fprintf(w, "hour\t%d\t%d\t%d\n", st.CountLong, st.LimitLong, st.RemainingLong)
			return w.Flush()
		},
	}
	statusCmd.Flags().StringVar(&clientID, "client", "", "client identity (IP address)")
	_ = statusCmd.MarkFlagRequired("client")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "memogate.yaml", "path to config file")
	cmd.PersistentFlags().StringVar(&addr, "addr", "", "server address (defaults to the configured listen address)")
	cmd.AddCommand(statusCmd)
	return cmd
}
