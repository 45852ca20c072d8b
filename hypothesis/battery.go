// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package hypothesis

// Battery is an ordered set of hypotheses evaluated against the same
// observations.
type Battery []Hypothesis

// DefaultBattery returns the standard four-claim battery: determinism,
// completeness against the threshold, no regression against the baseline,
// and mutation correlation against expectedR.
func DefaultBattery(threshold, baseline, expectedR float64) Battery {
	return Battery{
		Determinism(),
		Completeness(threshold),
		NoRegression(baseline),
		MutationCorrelation(expectedR),
	}
}

// Evaluate runs every hypothesis in the battery over the observations,
// returning results in battery order.
func (b Battery) Evaluate(observations []float64) []Result {
	res := make([]Result, 0, len(b))
	for _, h := range b {
		res = append(res, h.Evaluate(observations))
	}
	return res
}
