// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Command covtrace is a diagnostic tool for coverage observations: it
// evaluates the standard hypothesis battery over repeated-run coverage
// percentages and renders coverage trends. It does not launch test runs.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "covtrace [command] (flags)",
	Short: "coverage observation analysis tool",
	Long:  ``,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(
		hypothesisCmd,
		trendCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
