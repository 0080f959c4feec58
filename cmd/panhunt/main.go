// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"panhunt/internal/cmd"

	// Import formatters to register them
	_ "panhunt/internal/formatters/csv"
	_ "panhunt/internal/formatters/json"
	_ "panhunt/internal/formatters/text"
	_ "panhunt/internal/formatters/yaml"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cmd.ErrVerificationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
