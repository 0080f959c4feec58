// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"panhunt/internal/config"
	"panhunt/internal/history"
	"panhunt/internal/report"
	"panhunt/internal/security"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewVerifyCommand creates the verify subcommand
func NewVerifyCommand() *cobra.Command {
	var configFile, keyEnv, historyDB string
	cmd := &cobra.Command{
		Use:   "verify <report>",
		Short: "Check that a report has not been changed since it was written",
		Long: `Verify recomputes the hash of a report's content and compares it to the
hash stored on its last line.

Exit code: 0 if the hashes match, 1 otherwise`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _ := config.LoadConfigOrDefault(configFile)
			if cmd.Flags().Changed("key-env") {
				cfg.ReportKeyEnv = keyEnv
			}
			if cmd.Flags().Changed("history-db") {
				cfg.HistoryDB = historyDB
			}
			key := cfg.SealKey()
			defer key.Clear()
			return runVerify(cmd.Context(), args[0], key, cfg.HistoryDB, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "C", "", "configuration file")
	cmd.Flags().StringVar(&keyEnv, "key-env", "", "environment variable holding the report key")
	cmd.Flags().StringVar(&historyDB, "history-db", "", "look the seal up in this SQLite ledger")
	return cmd
}

func runVerify(ctx context.Context, path string, key *security.SealKey, historyDB string, out io.Writer) error {
	v, err := report.Verify(path, key)
	if err != nil {
		return err
	}
	if !v.OK {
		color.New(color.FgRed).Fprintln(out, "Hashes Not OK")
		fmt.Fprintf(out, "Stored:   %s\nComputed: %s\n", v.Stored, v.Computed)
		return ErrVerificationFailed
	}

	color.New(color.FgGreen).Fprintln(out, "Hashes OK")
	if historyDB == "" {
		return nil
	}
	store, err := history.Open(ctx, historyDB)
	if err != nil {
		return err
	}
	defer store.Close()
	run, err := store.FindBySeal(ctx, v.Stored)
	if err != nil {
		return err
	}
	if run == nil {
		color.New(color.FgYellow).Fprintln(out, "No recorded run wrote this report")
		return nil
	}
	fmt.Fprintf(out, "Written by run %s of %s at %s\n", run.RunID, run.Root, run.FinishedAt.Local().Format("15:04:05 02/01/2006"))
	return nil
}
