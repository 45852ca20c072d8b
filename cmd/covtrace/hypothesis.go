// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/covtrace/covtrace/hypothesis"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	threshold float64
	baseline  float64
	expectedR float64
)

var hypothesisCmd = &cobra.Command{
	Use:   "hypothesis <observations-file>",
	Short: "evaluate the hypothesis battery over per-run coverage percentages",
	Long: `
Reads one coverage percentage per run from the given file (whitespace or
newline separated; # starts a comment) and evaluates the standard battery:
determinism, completeness, no-regression and mutation correlation.
`,
	Args: cobra.ExactArgs(1),
	RunE: runHypothesis,
}

func init() {
	hypothesisCmd.Flags().Float64Var(
		&threshold, "threshold", 80, "completeness threshold (percent)")
	hypothesisCmd.Flags().Float64Var(
		&baseline, "baseline", 80, "no-regression baseline (percent)")
	hypothesisCmd.Flags().Float64Var(
		&expectedR, "expected-r", 0.5, "expected mutation-score correlation")
}

func runHypothesis(cmd *cobra.Command, args []string) error {
	obs, err := readObservations(args[0])
	if err != nil {
		return err
	}
	if len(obs) < hypothesis.MinRuns {
		fmt.Fprintf(os.Stderr, "warning: %d observations, convention is at least %d runs\n",
			len(obs), hypothesis.MinRuns)
	}

	results := hypothesis.DefaultBattery(threshold, baseline, expectedR).Evaluate(obs)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Hypothesis", "Verdict", "P-Value", "Effect", "95% CI", "Significant"})
	for _, r := range results {
		verdict := "not rejected"
		if r.Rejected {
			verdict = "REJECTED"
		}
		table.Append([]string{
			r.Hypothesis,
			verdict,
			fmt.Sprintf("%.3f", r.PValue),
			fmt.Sprintf("%.3f", r.EffectSize),
			fmt.Sprintf("[%.2f, %.2f]", r.ConfidenceInterval[0], r.ConfidenceInterval[1]),
			strconv.FormatBool(r.IsSignificant()),
		})
	}
	table.Render()

	fmt.Printf("observations: %s\n", hypothesis.Summarize(obs))
	return nil
}

func readObservations(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var obs []float64
	for lineno, line := range strings.Split(string(data), "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d: bad observation %q", path, lineno+1, field)
			}
			obs = append(obs, v)
		}
	}
	return obs, nil
}
