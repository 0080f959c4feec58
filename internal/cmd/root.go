// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"panhunt/internal/version"

	"github.com/spf13/cobra"
)

// ErrVerificationFailed is returned by verify when a report's seal does
// not match. The command has already printed the details.
var ErrVerificationFailed = errors.New("report verification failed")

// NewRootCommand creates and returns the root cobra command for panhunt
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panhunt",
		Short: "Search a filesystem for payment card numbers",
		Long: `panhunt walks a directory tree looking for card numbers (PANs) in
plain text files, zip based archives and mail files. Candidates are
checked with the Luhn algorithm and written to a report whose last line
is a hash of its content, so later edits can be detected with
"panhunt verify".`,
		Version: version.Version,
		// main prints errors; usage is only shown on request
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewVerifyCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewVersionCommand prints build information.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info().String())
		},
	}
}
