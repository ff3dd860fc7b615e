package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pario-ai/memogate/pkg/config"
	"github.com/pario-ai/memogate/pkg/tracker"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		client     string
		recent     int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show request outcomes from the request log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			tr, err := tracker.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer tr.Close()

			ctx := context.Background()

			if recent > 0 {
				recs, err := tr.Recent(ctx, client, recent)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					fmt.Println("No requests found.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tREQUEST ID\tCLIENT\tOUTCOME\tLATENCY")
				for _, r := range recs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\n",
						r.CreatedAt.Format("2006-01-02T15:04:05"), r.RequestID, r.ClientID, r.Outcome, r.LatencyMs)
				}
				return w.Flush()
			}

			summaries, err := tr.Summary(ctx, client)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No usage data found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CLIENT\tOUTCOME\tREQUESTS\tAVG LATENCY")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%.1fms\n", s.ClientID, s.Outcome, s.RequestCount, s.AvgLatencyMs)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "memogate.yaml", "path to config file")
	cmd.Flags().StringVar(&client, "client", "", "filter by client")
	cmd.Flags().IntVar(&recent, "recent", 0, "list the N most recent requests instead of the summary")
	return cmd
}
