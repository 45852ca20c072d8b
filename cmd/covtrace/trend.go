// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package main

import (
	"fmt"

	"github.com/covtrace/covtrace/hypothesis"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
)

var trendHeight int

var trendCmd = &cobra.Command{
	Use:   "trend <observations-file>",
	Short: "render a coverage trend graph from per-run percentages",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().IntVar(&trendHeight, "height", 10, "graph height in rows")
}

func runTrend(cmd *cobra.Command, args []string) error {
	obs, err := readObservations(args[0])
	if err != nil {
		return err
	}
	fmt.Println(asciigraph.Plot(obs,
		asciigraph.Height(trendHeight),
		asciigraph.Caption(fmt.Sprintf("coverage %% over %d runs", len(obs)))))
	fmt.Printf("\n%s\n", hypothesis.Summarize(obs))
	return nil
}
