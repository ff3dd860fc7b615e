package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pario-ai/memogate/pkg/cache/lru"
)

func newFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <question> <answer>",
		Short: "Print the cache key for a question and answer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), lru.Fingerprint(args[0], args[1]))
			return nil
		},
	}
}
