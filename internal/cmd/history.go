// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"text/tabwriter"

	"panhunt/internal/config"
	"panhunt/internal/history"
	"panhunt/internal/paths"

	"github.com/spf13/cobra"
)

// NewHistoryCommand lists recorded scan runs.
func NewHistoryCommand() *cobra.Command {
	var configFile, historyDB string
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent scan runs from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _ := config.LoadConfigOrDefault(configFile)
			dbPath := cfg.HistoryDB
			if cmd.Flags().Changed("history-db") {
				dbPath = historyDB
			}
			if dbPath == "" {
				dbPath = paths.GetHistoryDB()
			}

			store, err := history.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			schema, err := store.GetLatestVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ledger %s (schema v%d)\n", dbPath, schema)
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tROOT\tSEARCHED\tPANS\tFAILED\tREPORT")
			for _, r := range runs {
				status := ""
				if r.Interrupted {
					status = " (interrupted)"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s%s\n",
					r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Root, r.Searched, r.MatchCount, r.FailedCount, r.ReportPath, status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "C", "", "configuration file")
	cmd.Flags().StringVar(&historyDB, "history-db", "", "SQLite ledger to read")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	return cmd
}
