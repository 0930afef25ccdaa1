// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command snowsim is the CLI front-end for the Snow-family consensus
// simulation harness, mirroring cmd/consensus/main.go's root-command-
// plus-subcommand layout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "snowsim",
	Short: "Snow-family binary Byzantine consensus simulation harness",
	Long: `snowsim drives repeated rounds of opinion exchange across a configured
population of honest and Byzantine nodes running Snowball or Claro
consensus, until a termination ward fires, recording per-iteration
per-node state for offline analysis.`,
}

func main() {
	rootCmd.AddCommand(runCmd(), paramsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
